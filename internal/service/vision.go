package service

import (
	"context"
	"strings"
)

// VisionClient is the seam to the external multimodal model. It is the
// only suspension point in the pipeline: everything the system knows
// about a document's content comes back through this call as JSON text.
type VisionClient interface {
	// GenerateJSON sends an instruction prompt plus one inline document
	// (image or PDF bytes) and returns the model's JSON response body.
	GenerateJSON(ctx context.Context, prompt string, document []byte, mimeType string) ([]byte, error)
}

// cleanModelJSON strips markdown fences and surrounding junk that the
// model sometimes emits despite being told not to, keeping only the
// outermost JSON value.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// If there is still text around the JSON, keep only from the first
	// opening bracket to its matching last closing bracket.
	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return s
	}
	closer := "]"
	if s[start] == '{' {
		closer = "}"
	}
	if end := strings.LastIndex(s, closer); end > start {
		s = strings.TrimSpace(s[start : end+1])
	}
	return s
}
