package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/fastfingers-bot/internal/announce"
	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
	"github.com/pfrederiksen/fastfingers-bot/internal/storage"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// WriteOutput writes the journal record in the specified format
func WriteOutput(w io.Writer, record *storage.RunRecord, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, record)
	case FormatText:
		return writeText(w, record, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the record as JSON, or null when nothing was recorded
func writeJSON(w io.Writer, record *storage.RunRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(record)
}

// writeText outputs the record as human-readable text
func writeText(w io.Writer, record *storage.RunRecord, verbose bool) error {
	if record == nil {
		fmt.Fprintln(w, "No run recorded yet.")
		return nil
	}

	mode := "dry run"
	if record.Production {
		mode = "production"
	}
	if record.Forced {
		mode += ", forced"
	}

	fmt.Fprintf(w, "Run %s (%s)\n", record.RunID, mode)
	fmt.Fprintf(w, "  Started:  %s\n", record.StartedAt.Format(time.RFC3339))
	if verbose {
		fmt.Fprintf(w, "  Finished: %s\n", record.FinishedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "  New competition: %s\n", record.TournamentLink)

	if record.PriorLink == "" {
		fmt.Fprintln(w, "\nNo previous competition was found.")
		return nil
	}
	fmt.Fprintf(w, "  Previous competition: %s\n", record.PriorLink)
	if verbose && record.PriorPermalink != "" {
		fmt.Fprintf(w, "  Announced in %s: %s\n", record.PriorChannel, record.PriorPermalink)
	}

	if len(record.Results) == 0 {
		fmt.Fprintln(w, "\nNo competitors took part.")
		return nil
	}

	fmt.Fprintln(w)
	for _, rec := range record.Results {
		fmt.Fprintf(w, "#%s: %s %sWPM\n", rec.RankText(), announce.Identity(rec), rec.WPMText())
		if verbose {
			if rec.ProfileURL != "" {
				fmt.Fprintf(w, "     Profile: %s\n", rec.ProfileURL)
			}
			fmt.Fprintf(w, "     Tests: %s\n", competitor.FormatFloat(rec.TestsTaken))
		}
	}
	fmt.Fprintf(w, "\nTotal: %d competitors\n", len(record.Results))

	return nil
}
