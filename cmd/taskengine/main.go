// Command taskengine runs the task execution substrate: a resizable
// worker pool, a deadline scheduler, an optional execution ledger, and an
// HTTP surface over both.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
