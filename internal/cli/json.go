package cli

import (
	"encoding/json"
	"io"
)

// writeJSON writes v as indented JSON. HTML escaping is off so recovered text
// secrets and access strings print as entered.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
