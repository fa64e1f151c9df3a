package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

const usageText = `aipm talks you through creating projects, tickets, and guidelines
on the dashboard instead of filling out forms.

Usage:
  aipm <command> [flags]

Commands:
  new      start a creation session
  config   print effective configuration
  history  list archived sessions
  version  print version
  help     show help

New flags:
  --kind      entity to create: project, ticket, guideline (default: assistant picks)
  --stream    stream agent replies token by token

Examples:
  aipm new --kind project
  aipm new --kind ticket --stream
  aipm history --limit 10
`

const version = "dev"

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	case "new":
		exitOnErr("new", runNew(args[1:]))
	case "config":
		exitOnErr("config", runConfig(args[1:]))
	case "history":
		exitOnErr("history", runHistory(args[1:]))
	case "version":
		fmt.Fprintln(os.Stdout, buildVersion())
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func exitOnErr(label string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}
	return version
}
