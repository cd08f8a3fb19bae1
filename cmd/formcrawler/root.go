package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nao1215/formcrawler/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. The root command itself runs a crawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formcrawler [flags] <url>",
		Short: "Identify forms on a website",
		Long: `formcrawler crawls a website recursively and reports the HTML forms it finds.

Starting from the given URL, it follows hyperlinks that stay below the current
page (and, by default, on the same host) up to the given depth.

Verbosity:
  1 - Only found forms
  2 - All crawled sites
  3 - Granular logging

Examples:
  # Report forms on a single page
  formcrawler https://example.com/

  # Follow links two levels deep and show every crawled page
  formcrawler -d 3 -v 2 https://example.com/app/

  # Save console output to a file and print a Markdown summary
  formcrawler -o crawl.log --report markdown https://example.com/`,
		Version:       getVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawlCmd,
	}

	addCrawlFlags(cmd)

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errCrawlAborted):
		// "Error: <message>" has already been printed with the crawl output.
		return 1
	case errors.Is(err, config.ErrNoTarget):
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, cmd.UsageString())
		return 1
	default:
		fmt.Fprintln(stderr, err)
		return 1
	}
}
