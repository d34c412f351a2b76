// Command catalog browses a searchable catalog from the terminal.
//
// Usage:
//
//	catalog [address]            Interactive browser (same as 'catalog browse')
//	catalog browse [address]     Interactive browser starting at address
//	catalog search [flags] [q]   One-shot search, table or JSON output
//	catalog url encode|decode    Address codec tool
//	catalog history list|clear   Recent search history
//	catalog events               JSONL event log viewer
package main

import (
	"fmt"
	"os"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	app := newCLIApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
