package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/fastfingers-bot/internal/announce"
	"github.com/pfrederiksen/fastfingers-bot/internal/chat"
	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
	"github.com/pfrederiksen/fastfingers-bot/internal/directory"
	"github.com/pfrederiksen/fastfingers-bot/internal/gate"
	"github.com/pfrederiksen/fastfingers-bot/internal/logger"
	"github.com/pfrederiksen/fastfingers-bot/internal/metrics"
	"github.com/pfrederiksen/fastfingers-bot/internal/notifier"
)

// ErrNoTournamentLink is returned when the browser finished without a share link
var ErrNoTournamentLink = errors.New("no tournament link was created")

// Stage names used in logs and metrics
const (
	StageLookup   = "lookup"
	StageResults  = "results"
	StageCreate   = "create"
	StageMatch    = "match"
	StageAnnounce = "announce"
)

// Announcements finds the previous competition announcement
type Announcements interface {
	LastAnnouncement(ctx context.Context) (*chat.Announcement, error)
}

// Directory lists the members competitors are matched against
type Directory interface {
	Members(ctx context.Context) ([]competitor.Member, error)
}

// RankingSource returns the standings of the competition behind link
type RankingSource interface {
	Results(ctx context.Context, link string) ([]*competitor.Competitor, error)
}

// TournamentCreator creates a new competition and returns its invitation link
type TournamentCreator interface {
	CreateTournament(ctx context.Context) (string, error)
}

// Deps holds the collaborators of a Workflow. Announcements and Directory may
// be nil, in which case no prior competition is looked up or no member is
// matched.
type Deps struct {
	Announcements Announcements
	Directory     Directory
	Rankings      RankingSource
	Creator       TournamentCreator
	Notifier      notifier.Notifier
	Metrics       *metrics.Manager
	Logger        *logger.Logger
	Now           func() time.Time
}

// Options tune a run
type Options struct {
	Policy      gate.Policy
	SettleDelay time.Duration
}

// Result carries everything a run produced
type Result struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	Prior          *chat.Announcement
	Decision       gate.Decision
	Records        []*competitor.Competitor
	Matched        int
	TournamentLink string
	Messages       []string
}

// Suppressed reports whether the run ended at the gate
func (r *Result) Suppressed() bool {
	return r.Decision.Suppress
}

// Workflow orchestrates one tournament cycle
type Workflow struct {
	deps    Deps
	opts    Options
	matcher *directory.Matcher
}

// New creates a Workflow
func New(deps Deps, opts Options) (*Workflow, error) {
	if deps.Rankings == nil || deps.Creator == nil || deps.Notifier == nil {
		return nil, errors.New("workflow needs a ranking source, a tournament creator and a notifier")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewManager()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Workflow{deps: deps, opts: opts, matcher: directory.NewMatcher()}, nil
}

// Run executes the workflow once. A suppressed run returns a Result with
// Decision.Suppress set and a nil error.
func (w *Workflow) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), StartedAt: w.deps.Now()}
	log := w.deps.Logger.With(logger.Fields{"run_id": res.RunID})
	log.Info("Starting run", nil)

	prior, err := w.lookup(ctx)
	if err != nil {
		return nil, err
	}
	res.Prior = prior

	var lastAnnounced time.Time
	if prior != nil {
		lastAnnounced = prior.PostedAt
		log.Info("Found previous competition", logger.Fields{"link": prior.Link, "posted_at": prior.PostedAt})
	} else {
		log.Warn("No previous competition found, skipping results", nil)
	}

	res.Decision = gate.Evaluate(res.StartedAt, lastAnnounced, w.opts.Policy)
	if res.Decision.Suppress {
		log.Info("Run suppressed", logger.Fields{"reason": string(res.Decision.Reason)})
		res.FinishedAt = w.deps.Now()
		return res, nil
	}
	if res.Decision.Forced {
		log.Warn("Forcing run", logger.Fields{"reason": string(res.Decision.Reason)})
		if err := w.post(ctx, res, announce.Disregard()); err != nil {
			return nil, err
		}
	}

	members, err := w.gather(ctx, res)
	if err != nil {
		return nil, err
	}
	log.Info("Created competition", logger.Fields{"link": res.TournamentLink, "records": len(res.Records)})

	if prior != nil {
		start := time.Now()
		outcomes, tally := w.matcher.Attach(res.Records, members)
		res.Matched = tally.Matched()
		w.deps.Metrics.DirectoryMatched(len(members), tally.ByConfidence())
		w.deps.Metrics.ObserveStage(StageMatch, time.Since(start))
		for i, outcome := range outcomes {
			log.Debug("Directory match", logger.Fields{
				"username":   res.Records[i].Username,
				"member_id":  outcome.MemberID,
				"confidence": outcome.Confidence.String(),
			})
		}
		log.Info("Matched competitors", logger.Fields{
			"members": len(members),
			"exact":   tally.Exact,
			"pattern": tally.Pattern,
			"none":    tally.None,
		})

		day := res.StartedAt.In(location(w.opts.Policy)).Weekday()
		if err := w.post(ctx, res, announce.Results(day, res.Records)); err != nil {
			return nil, err
		}
	}

	if err := w.post(ctx, res, announce.NewTournament(res.TournamentLink)); err != nil {
		return nil, err
	}

	if err := settle(ctx, w.opts.SettleDelay); err != nil {
		return nil, err
	}

	res.FinishedAt = w.deps.Now()
	log.Info("Run finished", logger.Fields{"messages": len(res.Messages)})
	return res, nil
}

func (w *Workflow) lookup(ctx context.Context) (*chat.Announcement, error) {
	if w.deps.Announcements == nil {
		return nil, nil
	}
	start := time.Now()
	defer func() { w.deps.Metrics.ObserveStage(StageLookup, time.Since(start)) }()

	prior, err := w.deps.Announcements.LastAnnouncement(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding previous competition: %w", err)
	}
	return prior, nil
}

// gather scrapes the previous standings while the next competition is created
func (w *Workflow) gather(ctx context.Context, res *Result) ([]competitor.Member, error) {
	var members []competitor.Member
	g, gctx := errgroup.WithContext(ctx)

	if res.Prior != nil {
		link := res.Prior.Link
		g.Go(func() error {
			start := time.Now()
			defer func() { w.deps.Metrics.ObserveStage(StageResults, time.Since(start)) }()

			records, err := w.deps.Rankings.Results(gctx, link)
			if err != nil {
				return fmt.Errorf("fetching results: %w", err)
			}
			w.deps.Metrics.RecordsParsed(len(records))
			res.Records = records

			if w.deps.Directory == nil || len(records) == 0 {
				return nil
			}
			members, err = w.deps.Directory.Members(gctx)
			if err != nil {
				return fmt.Errorf("listing members: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		start := time.Now()
		defer func() { w.deps.Metrics.ObserveStage(StageCreate, time.Since(start)) }()

		link, err := w.deps.Creator.CreateTournament(gctx)
		if err != nil {
			return fmt.Errorf("creating tournament: %w", err)
		}
		if link == "" {
			return ErrNoTournamentLink
		}
		res.TournamentLink = link
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return members, nil
}

func (w *Workflow) post(ctx context.Context, res *Result, text string) error {
	start := time.Now()
	defer func() { w.deps.Metrics.ObserveStage(StageAnnounce, time.Since(start)) }()

	if err := w.deps.Notifier.Notify(ctx, text); err != nil {
		return fmt.Errorf("posting message: %w", err)
	}
	w.deps.Metrics.MessagePosted()
	res.Messages = append(res.Messages, text)
	return nil
}

// settle gives the chat service time to unfurl the posted links before exit
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func location(p gate.Policy) *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}
