// Package cli runs the registered tools straight from the command line,
// without starting an MCP server.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-typeset/internal/registry"
	"github.com/sammcj/mcp-typeset/internal/tools"
	"github.com/sirupsen/logrus"
)

// OutputFormat controls how results are rendered
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json"
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be 'text' or 'json'", s)
	}
}

// Runner executes CLI commands against the tool registry
type Runner struct {
	logger *logrus.Logger
	cache  *sync.Map
	output OutputFormat
	out    io.Writer
}

// NewRunner creates a Runner writing to out
func NewRunner(logger *logrus.Logger, cache *sync.Map, output OutputFormat, out io.Writer) *Runner {
	return &Runner{logger: logger, cache: cache, output: output, out: out}
}

// ListTools prints all enabled tools with the first line of their description
func (r *Runner) ListTools() error {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var entries []entry
	for _, t := range registry.GetEnabledTools() {
		def := t.Definition()
		entries = append(entries, entry{Name: def.Name, Description: firstLine(def.Description)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	if r.output == OutputJSON {
		return r.writeJSON(entries)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Description)
	}
	return w.Flush()
}

// HelpTool prints the parameters of a tool, plus its examples when it has any
func (r *Runner) HelpTool(name string) error {
	tool, ok := resolveTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}

	def := tool.Definition()
	var extended *tools.ExtendedHelp
	if p, ok := tool.(tools.ExtendedHelpProvider); ok {
		extended = p.ProvideExtendedInfo()
	}

	if r.output == OutputJSON {
		return r.writeJSON(map[string]any{"tool": def, "extended_help": extended})
	}

	fmt.Fprintf(r.out, "Tool: %s\n\n%s\n\n", def.Name, def.Description)

	props := def.InputSchema.Properties
	if len(props) > 0 {
		required := def.InputSchema.Required
		names := make([]string, 0, len(props))
		for k := range props {
			names = append(names, k)
		}
		slices.Sort(names)

		fmt.Fprintln(r.out, "Parameters:")
		w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
		for _, pName := range names {
			pMap, ok := props[pName].(map[string]any)
			if !ok {
				continue
			}
			pType, _ := pMap["type"].(string)
			pDesc, _ := pMap["description"].(string)

			reqMark := ""
			if slices.Contains(required, pName) {
				reqMark = " (required)"
			}
			fmt.Fprintf(w, "  --%s\t%s\t%s%s%s\n", toFlagName(pName), pType, firstLine(pDesc), reqMark, formatEnum(pMap))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if extended != nil && len(extended.Examples) > 0 {
		fmt.Fprintln(r.out, "\nExamples:")
		for _, ex := range extended.Examples {
			args, err := json.Marshal(ex.Arguments)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.out, "  %s\n    %s\n    => %s\n", ex.Description, args, ex.ExpectedResult)
		}
	}
	return nil
}

// RunTool executes a tool by name. args are --key=value / --key value /
// --flag arguments or a JSON object; flags win over JSON.
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	tool, ok := resolveTool(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s (run 'mcp-typeset tools list' to see available tools)", name)
	}

	params, err := parseArgs(args, tool.Definition())
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	result, err := tool.Execute(ctx, r.logger, r.cache, params)
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}
	return r.renderResult(result)
}

func (r *Runner) renderResult(result *mcp.CallToolResult) error {
	if result == nil {
		return nil
	}

	if r.output == OutputJSON {
		if err := r.writeJSON(result); err != nil {
			return err
		}
	} else {
		for _, content := range result.Content {
			if text, ok := mcp.AsTextContent(content); ok {
				fmt.Fprintln(r.out, text.Text)
				continue
			}
			data, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(r.out, string(data))
		}
	}

	if result.IsError {
		return fmt.Errorf("tool returned an error")
	}
	return nil
}

func (r *Runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resolveTool accepts kebab-case names for snake_case tools
func resolveTool(name string) (tools.Tool, bool) {
	if tool, ok := registry.GetTool(name); ok {
		return tool, true
	}
	return registry.GetTool(strings.ReplaceAll(name, "-", "_"))
}

// parseArgs converts CLI arguments into tool arguments, coercing values
// to the types declared in the tool's input schema
func parseArgs(args []string, def mcp.Tool) (map[string]any, error) {
	params := make(map[string]any)
	types := make(map[string]string, len(def.InputSchema.Properties))
	flagToParam := make(map[string]string, len(def.InputSchema.Properties))
	for name, prop := range def.InputSchema.Properties {
		if pm, ok := prop.(map[string]any); ok {
			types[name], _ = pm["type"].(string)
		}
		flagToParam[toFlagName(name)] = name
	}

	resolve := func(flag string) string {
		if p, ok := flagToParam[flag]; ok {
			return p
		}
		return strings.ReplaceAll(flag, "-", "_")
	}

	var fromJSON map[string]any
	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case strings.HasPrefix(arg, "{"):
			if err := json.Unmarshal([]byte(arg), &fromJSON); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
		case strings.HasPrefix(arg, "--"):
			flag := strings.TrimPrefix(arg, "--")
			if key, raw, found := strings.Cut(flag, "="); found {
				p := resolve(key)
				params[p] = coerceValue(raw, types[p])
				continue
			}
			p := resolve(flag)
			if types[p] == "boolean" {
				params[p] = true
				continue
			}
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("flag --%s requires a value", flag)
			}
			params[p] = coerceValue(args[i], types[p])
		default:
			return nil, fmt.Errorf("unexpected argument: %s (use --key=value flags or pass a JSON object)", arg)
		}
	}

	for k, v := range fromJSON {
		if _, exists := params[k]; !exists {
			params[k] = v
		}
	}
	return params, nil
}

// coerceValue converts a raw flag value to the JSON Schema type
func coerceValue(raw, schemaType string) any {
	switch schemaType {
	case "integer":
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
	case "number":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
		switch strings.ToLower(raw) {
		case "yes":
			return true
		case "no":
			return false
		}
	}
	return raw
}

func firstLine(s string) string {
	before, _, _ := strings.Cut(s, "\n")
	return before
}

// toFlagName converts snake_case or camelCase to kebab-case
func toFlagName(s string) string {
	s = strings.ReplaceAll(s, "_", "-")
	var out strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				out.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		out.WriteRune(r)
	}
	return out.String()
}

func formatEnum(pMap map[string]any) string {
	var vals []string
	switch e := pMap["enum"].(type) {
	case []string:
		vals = e
	case []any:
		for _, v := range e {
			vals = append(vals, fmt.Sprint(v))
		}
	}
	if len(vals) == 0 {
		return ""
	}
	return " [" + strings.Join(vals, "|") + "]"
}
