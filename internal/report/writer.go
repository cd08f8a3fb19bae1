package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/formcrawler/internal/model"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)
}

// New returns the writer for format ("text", "json" or "markdown").
func New(format string, output io.Writer) (Writer, error) {
	switch format {
	case "text":
		return NewSimpleWriter(output), nil
	case "json":
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case "markdown":
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how the crawl ended.
func statusText(report *model.CrawlReport) string {
	switch report.Status {
	case model.StatusAborted:
		return "Aborted - " + report.Error
	case model.StatusCancelled:
		return "Cancelled (partial results)"
	case model.StatusRunning:
		return "Running"
	default:
		if len(report.Failures) > 0 {
			return fmt.Sprintf("Complete (%d failed page(s))", len(report.Failures))
		}
		return "Complete"
	}
}
