// Package imports registers every tool with the registry as a side effect
package imports

import (
	_ "github.com/sammcj/mcp-typeset/internal/tools/typeset"
)
