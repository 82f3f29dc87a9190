// Package storage provides JSON-based persistence for the run journal.
//
// After every announced run the bot records what it posted: the run ID, the
// prior and new competition links, and the parsed standings. The journal lives
// in last_run.json under the data directory, by default
// ~/.local/share/fastfingers-bot/. Only the most recent run is kept.
package storage
