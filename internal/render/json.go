package render

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/zjy-dev/covgap/internal/report"
)

//go:embed schema.json
var schemaJSON []byte

func init() {
	Register("json", func(opts Options) (Renderer, error) { return NewJSONRenderer(), nil })
}

// Schema returns the JSON schema every JSON report conforms to.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// ValidateJSON checks data against the report schema.
func ValidateJSON(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("failed to validate report JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("report JSON does not match schema: %s", strings.Join(msgs, "; "))
}

// JSONRenderer writes the report as indented JSON.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Marshal encodes r and validates the result against the schema.
func (j *JSONRenderer) Marshal(r *report.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Render implements Renderer.
func (j *JSONRenderer) Render(w io.Writer, r *report.Report) error {
	data, err := j.Marshal(r)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
