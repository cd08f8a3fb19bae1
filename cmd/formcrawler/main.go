// Package main provides the entry point for the formcrawler CLI.
//
// formcrawler visits a website up to a bounded depth and reports every HTML
// form it finds, with tiered verbosity.
//
// Usage:
//
//	formcrawler [flags] <url>
//	formcrawler history [id]
//
// See --help for all available options.
package main

// main is the entry point for formcrawler.
func main() {
	Execute()
}
