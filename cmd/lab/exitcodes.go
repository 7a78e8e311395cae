package main

// Exit codes used when --strict is set. Without it every command exits 0.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad labsite.yml, missing source, cache not built)
	ExitDataError   = 3 // Data error (unreadable image or workbook, malformed JSON)
)
