// Package gate decides whether a scheduled run should announce anything.
package gate

import (
	"time"
)

// Reason explains why a run was suppressed
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonAlreadyRan   Reason = "already announced today"
	ReasonWeekend      Reason = "weekend"
	ReasonOutsideHours Reason = "outside active hours"
)

// Policy configures the suppression rules
type Policy struct {
	Enforce   bool // Only production runs are gated
	Force     bool // Announce even when a rule says otherwise
	FromHour  int  // First hour of the day a run may announce
	UntilHour int  // Runs at or after this hour are suppressed
	Location  *time.Location
}

// Decision is the outcome of evaluating a Policy
type Decision struct {
	Suppress bool
	Forced   bool // A rule matched but Force overrode it
	Reason   Reason
}

// Evaluate applies the policy to the current time and the time of the last
// announcement. A zero lastAnnounced means no earlier announcement was found.
func Evaluate(now, lastAnnounced time.Time, p Policy) Decision {
	if !p.Enforce {
		return Decision{}
	}

	reason := check(now, lastAnnounced, p)
	if reason == ReasonNone {
		return Decision{}
	}
	if p.Force {
		return Decision{Forced: true, Reason: reason}
	}
	return Decision{Suppress: true, Reason: reason}
}

func check(now, lastAnnounced time.Time, p Policy) Reason {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	if !lastAnnounced.IsZero() && sameDay(now, lastAnnounced.In(loc)) {
		return ReasonAlreadyRan
	}

	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return ReasonWeekend
	}

	if p.FromHour < p.UntilHour {
		if h := now.Hour(); h < p.FromHour || h >= p.UntilHour {
			return ReasonOutsideHours
		}
	}

	return ReasonNone
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
