package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"horse.fit/todos/internal/cli"
	"horse.fit/todos/internal/todo"
)

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	owner := fs.String("owner", "", "Owner key")
	item := fs.String("item", "", "Item id")
	lang := fs.String("lang", "", "Target language code (for example: de, zh)")
	provider := fs.String("provider", "", "Translation provider name (aws, openai, gemini); default from TRANSLATION_PROVIDER")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	ownerKey := strings.TrimSpace(*owner)
	itemID := strings.TrimSpace(*item)
	if ownerKey == "" || itemID == "" {
		fmt.Fprintln(os.Stderr, "--owner and --item are required")
		return 2
	}
	if strings.TrimSpace(*lang) == "" {
		fmt.Fprintln(os.Stderr, "--lang is required")
		return 2
	}

	cfg, logger, err := loadConfig(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	d, err := openDeps(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		return 1
	}
	defer d.Close()

	router, err := d.newRouter(ctx, *provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure translation: %v\n", err)
		return 1
	}

	resp := router.Dispatch(ctx, todo.Request{
		Method:      http.MethodGet,
		Resource:    todo.ResourceTranslation,
		PathParams:  map[string]string{"ownerKey": ownerKey, "itemId": itemID},
		QueryParams: map[string]string{"language": *lang},
	})

	line, ok := formatTranslateResult(resp)
	if !ok {
		fmt.Fprintln(os.Stderr, line)
		return 1
	}
	fmt.Println(line)
	return 0
}

func formatTranslateResult(resp todo.Response) (string, bool) {
	switch body := resp.Body.(type) {
	case *todo.TranslationResult:
		return fmt.Sprintf("cached=%t text=%q", body.Cached, body.TranslatedDescription), true
	case todo.MessageBody:
		if body.Error != "" {
			return fmt.Sprintf("translate failed (%d): %s: %s", resp.StatusCode, body.Message, body.Error), false
		}
		return fmt.Sprintf("translate failed (%d): %s", resp.StatusCode, body.Message), false
	default:
		return fmt.Sprintf("translate failed (%d)", resp.StatusCode), false
	}
}
