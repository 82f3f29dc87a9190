// Package cli implements the command-line interface for fastfingers-bot.
//
// The root command runs one tournament cycle: it loads configuration, opens
// the browser and chat collaborators, runs the workflow, and records the run
// in the journal, the optional spreadsheet export and the Pushgateway. The
// last-run subcommand prints the journal as text or JSON.
package cli
