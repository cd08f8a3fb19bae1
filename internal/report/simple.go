package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/formcrawler/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// It never emits ANSI colors.
type SimpleWriter struct {
	baseWriter

	// showFields lists the field names of every form.
	showFields bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithFields makes the writer list each form's field names.
func WithFields(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showFields = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeForms(&sb, report)
	w.writeFailures(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        FORMCRAWLER REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Start URL:      %s\n", report.StartURL)
	fmt.Fprintf(sb, "Crawl Date:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Crawl Depth:    %d\n", report.Depth)
	fmt.Fprintf(sb, "Stay on Domain: %t\n", report.SameDomain)
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:         %s\n", statusText(report))
	sb.WriteString("\n")
}

// writeSummary writes the counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	section(sb, "SUMMARY")

	fmt.Fprintf(sb, "  Pages visited:   %d (%d unique)\n", len(report.Pages), report.UniquePages())
	fmt.Fprintf(sb, "  Forms found:     %d (%d unnamed)\n", len(report.Forms), report.UnnamedForms())
	fmt.Fprintf(sb, "  Links found:     %d\n", report.LinksFound)
	fmt.Fprintf(sb, "  Links followed:  %d\n", report.LinksFollowed)
	fmt.Fprintf(sb, "  Off-domain:      %d\n", report.DomainSkips)
	sb.WriteString("\n")
}

// writeForms lists forms grouped by page.
func (w *SimpleWriter) writeForms(sb *strings.Builder, report *model.CrawlReport) {
	section(sb, "FORMS")

	order, byPage := report.FormsByPage()
	if len(order) == 0 {
		sb.WriteString("  No forms found\n\n")
		return
	}

	for _, page := range order {
		fmt.Fprintf(sb, "%s\n", page)
		for _, f := range byPage[page] {
			fmt.Fprintf(sb, "  [+] %q %s %s\n", f.Name, f.Method, actionOrDash(f.Action))
			if w.showFields && len(f.Fields) > 0 {
				fmt.Fprintf(sb, "      fields: %s\n", strings.Join(f.Fields, ", "))
			}
		}
		sb.WriteString("\n")
	}
}

// writeFailures lists isolated fetch failures.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Failures) == 0 {
		return
	}

	section(sb, "FAILURES")
	for _, f := range report.Failures {
		fmt.Fprintf(sb, "  [-] %s: %s\n", f.URL, f.Message)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by formcrawler\n")
	sb.WriteString("https://github.com/nao1215/formcrawler\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func actionOrDash(action string) string {
	if action == "" {
		return "-"
	}
	return action
}
