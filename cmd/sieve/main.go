// Command sieve filters and sorts document files with the filter and sort
// micro-syntax, in memory or through SQLite, and prints the SQL it would run.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
