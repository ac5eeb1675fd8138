package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing repository, invalid config, tools not configured)
	ExitDataError   = 3 // Data error (malformed FASTA or JSONL, unknown sequence id)
	ExitBuildError  = 4 // Index build failed
	ExitSearchError = 5 // Search failed or produced unparsable output
)
