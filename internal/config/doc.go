// Package config provides configuration structures and utilities for formcrawler.
// It defines the runtime options for a crawl (depth, verbosity, domain scoping,
// output destinations) and the optional YAML configuration file that carries
// per-host request settings such as headers and cookies.
package config
