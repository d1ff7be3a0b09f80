// Package cmd contains command routing for the finagent binary.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ecofinance/finagent/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "0.1.0"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// Execute is the entry point for the finagent CLI. It routes the first
// argument to a subcommand; the default is serve.
func Execute() error {
	// Version and help work even when config or env is invalid.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			return printVersion()
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "mock-fi":
			// The mock data service needs no model credentials.
			return runMockFi(os.Args[2:])
		}
	}

	logger := initLogger()

	if err := checkRequiredEnv(); err != nil {
		return err
	}

	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "serve":
		return runServe(logger, args)
	case "ask":
		return runAsk(logger, args)
	default:
		printHelp()
		return fmt.Errorf("unknown command %q", command)
	}
}

// initLogger builds the process logger. DEBUG in the environment
// switches to debug level; JSON output is used so log aggregators can
// ingest the server logs directly.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: true})
}

// checkRequiredEnv verifies the model API key is present.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "finagent requires a Gemini API key to answer questions.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}

func printHelp() {
	fmt.Println(`finagent - conversational financial assistant service

Usage:
  finagent serve [addr]     start the HTTP API server (default)
  finagent ask <question>   ask one question from the terminal
  finagent mock-fi [addr]   start the mock Fi MCP data service
  finagent version          show version information
  finagent help             show this help

Environment:
  GEMINI_API_KEY   Gemini API key (required for serve and ask)
  DEBUG            enable debug logging
  FINAGENT_*       configuration overrides (see ~/.finagent/config.yaml)`)
}
