package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/nao1215/formcrawler/internal/config"
	"github.com/nao1215/formcrawler/internal/crawler"
	"github.com/nao1215/formcrawler/internal/database"
	"github.com/nao1215/formcrawler/internal/log"
	"github.com/nao1215/formcrawler/internal/model"
	"github.com/nao1215/formcrawler/internal/report"
	"github.com/spf13/cobra"
)

// errCrawlAborted is returned when a fetch failure ended the crawl.
// The failure has already been printed as "Error: <message>".
var errCrawlAborted = errors.New("crawl aborted")

// addCrawlFlags registers the crawl flags on cmd.
func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	// Traversal
	f.IntP("depth", "d", config.DefaultDepth,
		"the maximum depth of recursion")
	f.IntP("verbose", "v", config.DefaultVerbosity,
		"output verbosity\n1 - Only found forms\n2 - All crawled sites\n3 - Granular logging")
	f.Bool("same-domain", false,
		"stay on the same domain (default)")
	f.Bool("no-same-domain", false,
		"follow links to other domains")
	f.Bool("isolate-failures", false,
		"keep crawling sibling links when a page cannot be fetched")

	// Requests
	f.Duration("timeout", config.DefaultTimeout,
		"per-request timeout (0 = no timeout)")
	f.String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Output
	f.StringP("output", "o", "",
		"save output to file, provide filename")
	f.Bool("no-color", false,
		"disable colored console output")
	f.String("report", "",
		"print a summary report after the crawl: text, json or markdown")
	f.String("report-file", "",
		"write the summary report to a file instead of stdout")

	// Configuration and history
	f.StringP("config", "c", "",
		"configuration file path (default: .formcrawler in current or home directory)")
	f.Bool("save", false,
		"store the crawl in the history database")
	f.String("db-dir", "",
		"history database directory (default: XDG data directory)")

	cmd.MarkFlagsMutuallyExclusive("same-domain", "no-same-domain")
}

// runCrawlCmd executes the crawl.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig creates a Config from defaults, the config file and flags, in
// that order of precedence (flags win).
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named config file must exist; the default locations are
	// optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = config.EmptyFile()
	}
	cfg.SiteConfigs.Apply(cfg)

	if flags.Changed("depth") {
		if cfg.Depth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("verbose") {
		if cfg.Verbosity, err = flags.GetInt("verbose"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("same-domain") {
		if cfg.SameDomain, err = flags.GetBool("same-domain"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-same-domain") {
		noSameDomain, err := flags.GetBool("no-same-domain")
		if err != nil {
			return nil, err
		}
		cfg.SameDomain = !noSameDomain
	}
	if flags.Changed("isolate-failures") {
		if cfg.IsolateFailures, err = flags.GetBool("isolate-failures"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}

	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.NoColor, err = flags.GetBool("no-color"); err != nil {
		return nil, err
	}
	reportFormat, err := flags.GetString("report")
	if err != nil {
		return nil, err
	}
	cfg.ReportFormat = config.ReportFormat(reportFormat)
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	if len(args) > 0 {
		cfg.Target = args[0]
	}

	return cfg, nil
}

// runCrawl prints the banner, crawls and writes the optional report and
// history entry. The banner, the final "Error:" line and the report go to
// stdout; crawl events go to stderr.
func runCrawl(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	var outFile *os.File
	if cfg.OutputFile != "" {
		var err error
		outFile, err = createFile(cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer outFile.Close()
	}

	banner := renderBanner(cfg, time.Now())
	fmt.Fprintln(stdout, banner)

	logOpts := log.Options{
		Console:   stderr,
		Verbosity: cfg.Verbosity,
		Color:     colorEnabled(cfg, stderr),
	}
	if outFile != nil {
		if _, err := fmt.Fprintln(outFile, banner); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logOpts.File = outFile
	}
	logger := log.NewEventLogger(logOpts)

	fetcher := crawler.NewHTTPFetcher(
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithRequestDecorator(siteDecorator(cfg.SiteConfigs, logger)),
		crawler.WithFetchLogger(logger.Logger),
	)

	crawlReport := model.NewCrawlReport(cfg.Target, cfg.Depth, cfg.SameDomain)
	crawlReport.IsolateFailures = cfg.IsolateFailures

	engine := crawler.NewEngine(fetcher, logger,
		crawler.WithSameDomain(cfg.SameDomain),
		crawler.WithIsolateFailures(cfg.IsolateFailures),
		crawler.WithReport(crawlReport),
	)

	crawlErr := engine.Crawl(ctx, cfg.Target, cfg.Depth)

	var fetchErr *crawler.FetchError
	switch {
	case crawlErr == nil:
		crawlReport.Finish(model.StatusComplete, nil)
	case ctx.Err() != nil:
		crawlReport.Finish(model.StatusCancelled, crawlErr)
	case errors.As(crawlErr, &fetchErr):
		crawlReport.Finish(model.StatusAborted, crawlErr)
		line := "Error: " + fetchErr.Error()
		fmt.Fprintln(stdout, line)
		if outFile != nil {
			fmt.Fprintln(outFile, line)
		}
	default:
		crawlReport.Finish(model.StatusAborted, crawlErr)
	}

	if err := writeReport(cfg, crawlReport, stdout); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveCrawlReport(cfg.DBDir, crawlReport); err != nil {
			logger.Error("failed to save crawl history", "error", err)
		} else {
			logger.Debug("crawl saved", "id", crawlReport.ID, "dir", cfg.DBDir)
		}
	}

	switch {
	case crawlErr == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("crawl interrupted: %w", crawlErr)
	case fetchErr != nil:
		return fmt.Errorf("%w: %w", errCrawlAborted, crawlErr)
	default:
		return crawlErr
	}
}

// colorEnabled reports whether events written to w should be colored.
// NO_COLOR and --no-color turn colors off; otherwise w must be a terminal.
func colorEnabled(cfg *config.Config, w io.Writer) bool {
	if cfg.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// siteDecorator returns a request decorator that applies per-host cookies,
// headers and user agent from the config file.
func siteDecorator(cf *config.File, logger *log.Logger) func(*http.Request) {
	return func(req *http.Request) {
		if cf == nil {
			return
		}
		site := cf.SiteConfigForHost(req.URL.Host)

		if site.UserAgent != "" {
			req.Header.Set("User-Agent", site.UserAgent)
		}
		if site.Cookie != "" {
			req.Header.Set("Cookie", site.Cookie)
		}
		for k, v := range site.Headers {
			req.Header.Set(k, v)
		}

		if site.Cookie != "" || len(site.Headers) > 0 {
			logger.Debug("site settings applied",
				"host", req.URL.Host,
				"cookie", site.Cookie,
				"headers", len(site.Headers),
			)
		}
	}
}

// writeReport writes the summary report when one was requested.
func writeReport(cfg *config.Config, crawlReport *model.CrawlReport, stdout io.Writer) error {
	if cfg.ReportFormat == config.ReportNone {
		return nil
	}

	out := stdout
	if cfg.ReportFile != "" {
		f, err := createFile(cfg.ReportFile)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w, err := report.New(string(cfg.ReportFormat), out)
	if err != nil {
		return err
	}
	if _, err := w.Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// saveCrawlReport stores the report in the history database.
func saveCrawlReport(dbDir string, crawlReport *model.CrawlReport) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	// The crawl context may already be cancelled; history is still saved.
	return db.SaveCrawlReport(context.Background(), crawlReport)
}

// createFile truncates or creates path, creating parent directories.
func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}
	}
	return os.Create(path) //nolint:gosec // user-provided output path is intentional
}
