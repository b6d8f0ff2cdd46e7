package main

// Default limits for CLI commands.
const (
	DefaultIndexBatchSize  = 64
	DefaultEnrichBatchSize = 50
)

// Valid output formats for resolve.
var validFormats = []string{"text", "json"}
