package directory

import (
	"regexp"
	"strings"

	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
)

// Confidence describes how a member name matched a username
type Confidence int

const (
	ConfidenceNone Confidence = iota
	// Member name tokens appear in order within the username
	ConfidencePattern
	// Username equals the member name ignoring case and whitespace
	ConfidenceExact
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceExact:
		return "exact"
	case ConfidencePattern:
		return "pattern"
	default:
		return "none"
	}
}

// Outcome is the result of matching one username against the directory
type Outcome struct {
	MemberID   string
	Confidence Confidence
}

// Found reports whether a member was bound
func (o Outcome) Found() bool {
	return o.Confidence != ConfidenceNone
}

// Matcher resolves usernames against directory members.
// Compiled name patterns are cached, so a Matcher is not safe for concurrent use.
type Matcher struct {
	patterns map[string]*regexp.Regexp
}

// NewMatcher creates a new Matcher
func NewMatcher() *Matcher {
	return &Matcher{
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Matches reports whether memberName, with whitespace runs as wildcards,
// occurs case-insensitively within candidate
func (m *Matcher) Matches(candidate, memberName string) bool {
	pattern := m.pattern(memberName)
	if pattern == nil {
		return false
	}
	return pattern.MatchString(candidate)
}

// Match returns the first member in order whose name matches candidate
func (m *Matcher) Match(candidate string, members []competitor.Member) Outcome {
	for _, member := range members {
		if !m.Matches(candidate, member.DisplayName) {
			continue
		}

		confidence := ConfidencePattern
		if squash(candidate) == squash(member.DisplayName) {
			confidence = ConfidenceExact
		}
		return Outcome{MemberID: member.ID, Confidence: confidence}
	}
	return Outcome{}
}

// Tally counts match outcomes by confidence
type Tally struct {
	Exact   int
	Pattern int
	None    int
}

// Matched is the number of records bound to a member
func (t Tally) Matched() int {
	return t.Exact + t.Pattern
}

// ByConfidence keys the counts by Confidence.String
func (t Tally) ByConfidence() map[string]int {
	return map[string]int{
		ConfidenceExact.String():   t.Exact,
		ConfidencePattern.String(): t.Pattern,
		ConfidenceNone.String():    t.None,
	}
}

func (t *Tally) add(c Confidence) {
	switch c {
	case ConfidenceExact:
		t.Exact++
	case ConfidencePattern:
		t.Pattern++
	default:
		t.None++
	}
}

// Attach sets DirectoryID on every record with a matching member and returns
// the outcome of each record, in record order. Unmatched records are left as they are.
func (m *Matcher) Attach(records []*competitor.Competitor, members []competitor.Member) ([]Outcome, Tally) {
	outcomes := make([]Outcome, len(records))
	var tally Tally
	for i, rec := range records {
		outcome := m.Match(rec.Username, members)
		outcomes[i] = outcome
		tally.add(outcome.Confidence)
		if outcome.Found() {
			rec.DirectoryID = outcome.MemberID
		}
	}
	return outcomes, tally
}

// pattern compiles a member name, returning nil for names with no tokens
func (m *Matcher) pattern(memberName string) *regexp.Regexp {
	if p, ok := m.patterns[memberName]; ok {
		return p
	}

	tokens := strings.Fields(memberName)
	if len(tokens) == 0 {
		m.patterns[memberName] = nil
		return nil
	}

	for i, tok := range tokens {
		tokens[i] = regexp.QuoteMeta(tok)
	}
	p := regexp.MustCompile("(?i)" + strings.Join(tokens, ".*"))
	m.patterns[memberName] = p
	return p
}

func squash(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
