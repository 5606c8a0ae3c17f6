package render

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/zjy-dev/covgap/internal/report"
)

func init() {
	Register("yaml", func(opts Options) (Renderer, error) { return &YAMLRenderer{}, nil })
}

// YAMLRenderer writes the report as YAML with the same field names as JSON.
type YAMLRenderer struct{}

// Render implements Renderer.
func (y *YAMLRenderer) Render(w io.Writer, r *report.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report as YAML: %w", err)
	}
	return enc.Close()
}
