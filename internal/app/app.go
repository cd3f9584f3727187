// Package app implements the todos command line.
package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "serve":
		return runServe(args[1:])
	case "health":
		return runHealth(args[1:])
	case "translate":
		return runTranslate(args[1:])
	case "hash-key":
		return runHashKey(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "todos CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  todos <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  serve      Start the HTTP API server")
	fmt.Fprintln(os.Stderr, "  health     Verify the configured store is reachable")
	fmt.Fprintln(os.Stderr, "  translate  Translate one item's description through the cache")
	fmt.Fprintln(os.Stderr, "  hash-key   Print a bcrypt hash for API_KEY_HASHES")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"todos <command> -h\" for command-specific flags.")
}
