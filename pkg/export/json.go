package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"
)

// Document is the JSON form of an exported frame.
type Document struct {
	Title    string            `json:"title,omitempty"`
	Selected string            `json:"selected,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
	Frame    layout.Frame      `json:"frame"`
}

// WriteJSON writes frame as an indented JSON document.
func WriteJSON(frame layout.Frame, w io.Writer, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	doc := Document{
		Title:    opts.Title,
		Selected: opts.Selected,
		Labels:   opts.Labels,
		Frame:    frame,
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}
