package cli

import (
	"encoding/json"
	"fmt"
	"io"

	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

// outputFormat is the rendering mode for command results.
type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
)

// parseOutputFormat validates the --output flag value.
func parseOutputFormat(raw string) (outputFormat, error) {
	switch outputFormat(raw) {
	case formatText, "":
		return formatText, nil
	case formatJSON:
		return formatJSON, nil
	default:
		return "", fmt.Errorf("cli: output format %q: %w", raw, kernelerrors.ErrInvalidOutputFormat)
	}
}

// emit renders v to w in the requested format. Text mode uses text, a
// caller-supplied human-readable rendering; JSON mode marshals v itself.
func emit(w io.Writer, format outputFormat, text string, v any) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
