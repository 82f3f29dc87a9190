package competitor

import (
	"strconv"
)

// Competitor represents one qualifying row of a competition ranking table
type Competitor struct {
	Rank        *int     `json:"rank,omitempty"`
	Username    string   `json:"username"`
	ProfileURL  string   `json:"profile_url,omitempty"`
	WPM         *float64 `json:"wpm,omitempty"`
	Keystrokes  *float64 `json:"keystrokes,omitempty"`
	TestsTaken  *float64 `json:"tests_taken,omitempty"`
	DirectoryID string   `json:"directory_id,omitempty"` // Set by the directory matcher
}

// Member is a chat workspace identity used to resolve display names to mentions
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Absent is how a missing numeric field is rendered
const Absent = "NaN"

// Matched reports whether the competitor was bound to a directory member
func (c *Competitor) Matched() bool {
	return c.DirectoryID != ""
}

// RankText renders the rank, or Absent when it could not be parsed
func (c *Competitor) RankText() string {
	if c.Rank == nil {
		return Absent
	}
	return strconv.Itoa(*c.Rank)
}

// WPMText renders words-per-minute, or Absent when it could not be parsed
func (c *Competitor) WPMText() string {
	return FormatFloat(c.WPM)
}

// FormatFloat renders an optional value without trailing zeros
func FormatFloat(v *float64) string {
	if v == nil {
		return Absent
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
