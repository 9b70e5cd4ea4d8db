package typeset

import "github.com/sammcj/mcp-typeset/internal/typography"

// ConvertRequest holds the parsed parameters shared by both tools
type ConvertRequest struct {
	Text     string `json:"text,omitempty"`      // typeset_text
	FilePath string `json:"file_path,omitempty"` // typeset_file
	Options  typography.Options
}

// ConvertResponse is the structured result of a conversion
type ConvertResponse struct {
	FilePath     string `json:"file_path,omitempty"`
	Mode         string `json:"mode"`
	Length       int    `json:"length"`
	ChangesCount int    `json:"changes_count"`
	Updated      bool   `json:"updated"`
}
