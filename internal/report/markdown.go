package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/formcrawler/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// Findings are rendered as GitHub-flavored alerts and per-page tables.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeForms(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("formcrawler Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + report.StartURL + "`"},
			{"Crawl Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Crawl Depth", strconv.Itoa(report.Depth)},
			{"Stay on Domain", strconv.FormatBool(report.SameDomain)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the counters and an alert describing the outcome.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages visited", strconv.Itoa(len(report.Pages))},
			{"Unique pages", strconv.Itoa(report.UniquePages())},
			{"Forms found", strconv.Itoa(len(report.Forms))},
			{"Unnamed forms", strconv.Itoa(report.UnnamedForms())},
			{"Links found", strconv.Itoa(report.LinksFound)},
			{"Links followed", strconv.Itoa(report.LinksFollowed)},
			{"Off-domain links", strconv.Itoa(report.DomainSkips)},
		},
	})
	md.PlainText("")

	if len(report.Forms) > 0 {
		w.writePieChart(md, report)
	}

	switch {
	case report.Status == model.StatusAborted:
		md.Cautionf("The crawl was aborted: %s", report.Error)
	case report.Status == model.StatusCancelled:
		md.Warningf("The crawl was cancelled. Results are partial.")
	case len(report.Failures) > 0:
		md.Importantf("%d page(s) could not be fetched.", len(report.Failures))
	case len(report.Forms) > 0:
		md.Note(fmt.Sprintf("%d form(s) found on %d page(s).", len(report.Forms), report.UniquePages()))
	default:
		md.Tip("No forms found.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of named versus unnamed forms.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Form Names"),
		piechart.WithShowData(true),
	)

	unnamed := report.UnnamedForms()
	if named := len(report.Forms) - unnamed; named > 0 {
		chart.LabelAndIntValue("Named", uint64(named))
	}
	if unnamed > 0 {
		chart.LabelAndIntValue("Unnamed", uint64(unnamed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeForms writes one table of forms per page.
func (w *MarkdownWriter) writeForms(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Forms")
	md.PlainText("")

	order, byPage := report.FormsByPage()
	if len(order) == 0 {
		md.PlainText("No forms found.")
		md.PlainText("")
		return
	}

	for _, page := range order {
		md.PlainText("### " + page)
		md.PlainText("")

		forms := byPage[page]
		rows := make([][]string, len(forms))
		for i, f := range forms {
			fields := "-"
			if len(f.Fields) > 0 {
				fields = strings.Join(f.Fields, ", ")
			}
			rows[i] = []string{f.Name, f.Method, actionOrDash(f.Action), fields}
		}

		md.Table(markdown.TableSet{
			Header: []string{"Name", "Method", "Action", "Fields"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFailures lists isolated fetch failures.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	items := make([]string, len(report.Failures))
	for i, f := range report.Failures {
		items[i] = "`" + f.URL + "`: " + f.Message
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [formcrawler](https://github.com/nao1215/formcrawler)*")
}
