// Package log renders crawl events as tiered, prefixed lines on top of the
// standard slog package.
//
// Every event belongs to one of five tiers. The tier decides the prefix, the
// console color and whether the event is shown at a given verbosity:
//
//	Tier      slog level       Prefix  Color
//	critical  LevelCritical    [+]     green
//	error     slog.LevelError  [-]     red
//	warning   slog.LevelWarn   [?]     yellow
//	info      slog.LevelInfo   [i]
//	debug     slog.LevelDebug  [d]
//
// Output can go to the console, to a file, or both. Both destinations get
// the same lines; the file never gets color codes.
//
// # Security Features
//
// The SecureHandler masks attribute values that carry credentials (cookies,
// authorization headers, tokens) before they are written. Per-site cookies
// configured for a crawl therefore never appear in debug output, even at
// the highest verbosity.
//
// # Usage
//
//	logger := log.NewEventLogger(log.Options{
//	    Console:   os.Stdout,
//	    File:      outFile,
//	    Verbosity: 2,
//	    Color:     true,
//	})
//	logger.Critical(`https://example.com/ - "login"`)
//	logger.Warn("Crawling site: https://example.com/")
//
// Logger embeds *slog.Logger, so logger.Logger can be handed to anything that
// takes a *slog.Logger.
package log
