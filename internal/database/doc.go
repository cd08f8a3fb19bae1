// Package database provides SQLite-based storage for crawl history.
//
// When a crawl is run with --save, its report is stored in the CrawlDB so it
// can be listed and shown again later with the history command. Nothing in
// the crawl itself reads from the database; each crawl starts from scratch.
//
// The driver is modernc.org/sqlite, which needs no cgo.
package database
