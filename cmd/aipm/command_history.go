package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"aipm/internal/config"
	"aipm/internal/store"
)

// runHistory lists archived sessions, newest first.
func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("limit", 20, "maximum number of sessions to show")
	asJSON := fs.Bool("json", false, "print full records as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	path, err := settings.ResolveArchivePath()
	if err != nil {
		return err
	}
	archive, err := store.NewBboltArchive(path)
	if err != nil {
		return err
	}
	defer archive.Close()

	records, err := archive.ListRecords(context.Background(), *limit)
	if err != nil {
		return err
	}
	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(records)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "SESSION\tKIND\tCOMPLETED\tMESSAGES\tENTITIES")
	for _, record := range records {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%d\n",
			record.SessionID,
			record.Kind,
			record.CompletedAt.Format("2006-01-02 15:04"),
			len(record.Messages),
			len(record.Entities))
	}
	return writer.Flush()
}
