package utils

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

const defaultTheme = "dracula"

// RenderJSON writes serialized JSON to w with terminal syntax highlighting.
// With plain set the content is copied unchanged.
func RenderJSON(w io.Writer, content []byte, theme string, plain bool) error {
	return RenderJSONWithContext(context.Background(), w, content, theme, plain)
}

// RenderJSONWithContext is RenderJSON with cancellation checked between lines.
func RenderJSONWithContext(ctx context.Context, w io.Writer, content []byte, theme string, plain bool) error {
	if plain {
		_, err := w.Write(content)
		return err
	}
	if theme == "" {
		theme = defaultTheme
	}

	lines := strings.SplitAfter(string(content), "\n")
	for i, line := range lines {
		if i%50 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if line == "" {
			continue
		}
		// Use a buffer to capture the highlight output
		var buf bytes.Buffer
		if err := quick.Highlight(&buf, line, "json", "terminal256", theme); err != nil {
			return err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
