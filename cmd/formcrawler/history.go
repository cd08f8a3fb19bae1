package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/formcrawler/internal/config"
	"github.com/nao1215/formcrawler/internal/database"
	"github.com/nao1215/formcrawler/internal/report"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit caps the number of crawls listed.
const defaultHistoryLimit = 20

// shortIDLength is how much of a crawl ID the listing shows.
const shortIDLength = 8

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [crawl-id]",
		Short: "List or show saved crawls",
		Long: `History lists crawls saved with --save, newest first.

With a crawl ID it prints the stored report of that crawl instead.

Examples:
  # List recent crawls
  formcrawler history

  # List crawls of one start URL
  formcrawler history --url https://example.com/

  # Show a stored crawl as Markdown
  formcrawler history --format markdown 3f2c1a9e-...

  # Delete a stored crawl
  formcrawler history --delete 3f2c1a9e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("url", "", "only list crawls of this start URL")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "maximum number of crawls to list (0 = all)")
	cmd.Flags().String("format", "text", "report format when showing a crawl: text, json or markdown")
	cmd.Flags().Bool("delete", false, "delete the given crawl instead of showing it")
	cmd.Flags().String("db-dir", "", "history database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	if len(args) == 0 {
		startURL, err := flags.GetString("url")
		if err != nil {
			return err
		}
		limit, err := flags.GetInt("limit")
		if err != nil {
			return err
		}
		return listRuns(cmd, db, out, startURL, limit)
	}

	id := args[0]
	del, err := flags.GetBool("delete")
	if err != nil {
		return err
	}
	if del {
		deleted, err := db.DeleteRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no saved crawl with id %s", id)
		}
		fmt.Fprintf(out, "Deleted crawl %s\n", id)
		return nil
	}

	format, err := flags.GetString("format")
	if err != nil {
		return err
	}
	w, err := report.New(format, out)
	if err != nil {
		return err
	}

	crawlReport, err := db.GetCrawlReport(cmd.Context(), id)
	if err != nil {
		return err
	}
	if crawlReport == nil {
		return fmt.Errorf("no saved crawl with id %s", id)
	}

	_, err = w.Write(crawlReport)
	return err
}

// listRuns prints stored crawls as a table.
func listRuns(cmd *cobra.Command, db *database.CrawlDB, out io.Writer, startURL string, limit int) error {
	runs, err := db.ListRuns(cmd.Context(), startURL, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No saved crawls.")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "Start URL", "Started", "Depth", "Pages", "Forms", "Status")
	for _, run := range runs {
		id := run.ID
		if len(id) > shortIDLength {
			id = id[:shortIDLength]
		}
		if err := table.Append([]string{
			id,
			run.StartURL,
			humanize.Time(run.StartedAt),
			strconv.Itoa(run.Depth),
			strconv.Itoa(run.PageCount),
			strconv.Itoa(run.FormCount),
			string(run.Status),
		}); err != nil {
			return err
		}
	}

	return table.Render()
}
