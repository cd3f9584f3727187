package app

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/todos/internal/auth"
)

func runHashKey(args []string) int {
	fs := flag.NewFlagSet("hash-key", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fromStdin := fs.Bool("stdin", false, "Read the key from stdin instead of the argument")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	var key string
	switch {
	case *fromStdin:
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "read key from stdin: %v\n", err)
			return 1
		}
		key = line
	case fs.NArg() == 1:
		key = fs.Arg(0)
	default:
		fmt.Fprintln(os.Stderr, "usage: todos hash-key <key> | todos hash-key --stdin")
		return 2
	}

	hash, err := auth.HashAPIKey(strings.TrimSpace(key))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	fmt.Println(hash)
	return 0
}
