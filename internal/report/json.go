package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/formcrawler/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// jsonReport adds derived counts next to the raw report so consumers do not
// have to recompute them.
type jsonReport struct {
	*model.CrawlReport

	Summary jsonSummary `json:"summary"`
}

type jsonSummary struct {
	PagesVisited int     `json:"pages_visited"`
	UniquePages  int     `json:"unique_pages"`
	FormsFound   int     `json:"forms_found"`
	UnnamedForms int     `json:"unnamed_forms"`
	DurationSecs float64 `json:"duration_seconds"`
}

// Write outputs the report in JSON format followed by a newline.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	wrapped := jsonReport{
		CrawlReport: report,
		Summary: jsonSummary{
			PagesVisited: len(report.Pages),
			UniquePages:  report.UniquePages(),
			FormsFound:   len(report.Forms),
			UnnamedForms: report.UnnamedForms(),
			DurationSecs: report.Duration().Seconds(),
		},
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(wrapped, "", w.indentString)
	} else {
		data, err = json.Marshal(wrapped)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
