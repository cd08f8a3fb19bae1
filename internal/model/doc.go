// Package model defines the data structures shared by the crawler, the
// report writers and the history database.
//
// The central type is CrawlReport, an output accumulator filled by the
// traversal engine while it runs. It records what the crawl found; it never
// feeds back into traversal decisions.
//
// All types marshal to JSON; the history database stores reports that way.
package model
