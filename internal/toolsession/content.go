package toolsession

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// FirstText returns the first text frame of a result and the total number of
// content frames. ok is false when no text frame exists.
func FirstText(result *mcp.CallToolResult) (text string, frames int, ok bool) {
	if result == nil {
		return "", 0, false
	}
	for _, c := range result.Content {
		if tc, isText := mcp.AsTextContent(c); isText {
			return tc.Text, len(result.Content), true
		}
	}
	return "", len(result.Content), false
}

// ErrorText joins the text frames of a result flagged isError.
func ErrorText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "; ")
}
