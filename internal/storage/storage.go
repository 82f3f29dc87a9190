package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
)

const journalFile = "last_run.json"

// RunRecord describes one announced run
type RunRecord struct {
	RunID          string                   `json:"run_id"`
	StartedAt      time.Time                `json:"started_at"`
	FinishedAt     time.Time                `json:"finished_at"`
	Production     bool                     `json:"production"`
	Forced         bool                     `json:"forced,omitempty"`
	PriorLink      string                   `json:"prior_link,omitempty"`
	PriorChannel   string                   `json:"prior_channel,omitempty"`
	PriorPermalink string                   `json:"prior_permalink,omitempty"`
	TournamentLink string                   `json:"tournament_link"`
	Results        []*competitor.Competitor `json:"results"`
}

// Storage handles persistence of the run journal
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Path returns the journal file location
func (s *Storage) Path() string {
	return filepath.Join(s.dataDir, journalFile)
}

// LoadLastRun loads the journal, returning nil when no run was recorded yet
func (s *Storage) LoadLastRun() (*RunRecord, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing journal: %w", err)
	}
	return &record, nil
}

// SaveRun replaces the journal with record. The file is written next to the
// journal and renamed so a crash never leaves a truncated journal behind.
func (s *Storage) SaveRun(record *RunRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}

	return nil
}
