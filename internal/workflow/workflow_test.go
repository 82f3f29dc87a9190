package workflow

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/fastfingers-bot/internal/chat"
	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
	"github.com/pfrederiksen/fastfingers-bot/internal/gate"
	"github.com/pfrederiksen/fastfingers-bot/internal/logger"
	"github.com/pfrederiksen/fastfingers-bot/internal/metrics"
	"github.com/pfrederiksen/fastfingers-bot/internal/scraper"
)

const (
	priorLink = "https://10fastfingers.com/competition/5f2a9c1e"
	newLink   = "https://10fastfingers.com/competition/9d81b3aa"
)

// Wednesday morning
var now = time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)

const threeRows = `<table id="competition-rank-table"><tbody>
<tr><td class="rank"><span>1</span></td><td class="username"><a href="/user/1">A</a></td><td class="wpm">80 WPM</td><td class="keystrokes">400</td><td class="tests_taken">2</td></tr>
<tr><td class="rank"><span>2</span></td><td class="username"><a href="/user/2">B</a></td><td class="wpm">75 WPM</td><td class="keystrokes">380</td><td class="tests_taken">1</td></tr>
<tr><td class="rank"><span>3</span></td><td class="username"><a href="/user/3">C</a></td><td class="wpm">60 WPM</td><td class="keystrokes">300</td><td class="tests_taken">4</td></tr>
</tbody></table>`

type fakeAnnouncements struct {
	prior *chat.Announcement
	err   error
}

func (f *fakeAnnouncements) LastAnnouncement(context.Context) (*chat.Announcement, error) {
	return f.prior, f.err
}

type fakeDirectory struct {
	members []competitor.Member
	calls   atomic.Int32
}

func (f *fakeDirectory) Members(context.Context) ([]competitor.Member, error) {
	f.calls.Add(1)
	return f.members, nil
}

type fakeRankings struct {
	html  string
	err   error
	links []string
}

func (f *fakeRankings) Results(_ context.Context, link string) ([]*competitor.Competitor, error) {
	f.links = append(f.links, link)
	if f.err != nil {
		return nil, f.err
	}
	return scraper.ParseRankings(strings.NewReader(f.html))
}

type fakeCreator struct {
	link  string
	err   error
	calls atomic.Int32
}

func (f *fakeCreator) CreateTournament(context.Context) (string, error) {
	f.calls.Add(1)
	return f.link, f.err
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	return nil
}

type fixture struct {
	announcements *fakeAnnouncements
	directory     *fakeDirectory
	rankings      *fakeRankings
	creator       *fakeCreator
	notifier      *fakeNotifier
}

func newFixture(prior *chat.Announcement) *fixture {
	return &fixture{
		announcements: &fakeAnnouncements{prior: prior},
		directory:     &fakeDirectory{members: []competitor.Member{{ID: "U9", DisplayName: "Zed Quinn"}}},
		rankings:      &fakeRankings{html: threeRows},
		creator:       &fakeCreator{link: newLink},
		notifier:      &fakeNotifier{},
	}
}

func (f *fixture) workflow(t *testing.T, policy gate.Policy) *Workflow {
	t.Helper()
	policy.Location = time.UTC
	w, err := New(Deps{
		Announcements: f.announcements,
		Directory:     f.directory,
		Rankings:      f.rankings,
		Creator:       f.creator,
		Notifier:      f.notifier,
		Logger:        logger.New(logger.LevelError, &strings.Builder{}),
		Now:           func() time.Time { return now },
	}, Options{Policy: policy})
	require.NoError(t, err)
	return w
}

func yesterday() *chat.Announcement {
	return &chat.Announcement{Link: priorLink, Channel: "C1", PostedAt: now.Add(-24 * time.Hour)}
}

func TestRun_EndToEnd(t *testing.T) {
	f := newFixture(yesterday())
	w := f.workflow(t, gate.Policy{})

	res, err := w.Run(context.Background())
	require.NoError(t, err)

	want := "Happy Wednesday! Here are the results for the last tournament:" +
		"\n#1: *A* 80WPM" +
		"\n#2: *B* 75WPM" +
		"\n#3: *C* 60WPM"
	require.Len(t, f.notifier.messages, 2)
	assert.Equal(t, want, f.notifier.messages[0])
	assert.Equal(t, "A new tournament is up at <"+newLink+">!", f.notifier.messages[1])

	assert.Equal(t, []string{priorLink}, f.rankings.links)
	assert.Equal(t, int32(1), f.creator.calls.Load())
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Records, 3)
	assert.Zero(t, res.Matched)
	assert.Equal(t, newLink, res.TournamentLink)
	assert.Equal(t, f.notifier.messages, res.Messages)
	assert.False(t, res.Suppressed())
}

func TestRun_MatchesDirectoryFirstMember(t *testing.T) {
	f := newFixture(yesterday())
	f.rankings.html = `<table id="competition-rank-table"><tbody>
<tr><td class="rank"><span>1</span></td><td class="username"><a href="/user/7">johnsmith99</a></td><td class="wpm">90</td><td class="keystrokes">1,200</td><td class="tests_taken">3</td></tr>
</tbody></table>`
	f.directory.members = []competitor.Member{
		{ID: "U1", DisplayName: "John Smith"},
		{ID: "U2", DisplayName: "John S"},
	}
	w := f.workflow(t, gate.Policy{})

	res, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, "U1", res.Records[0].DirectoryID)
	assert.Contains(t, f.notifier.messages[0], "#1: *<@U1>* 90WPM")
}

func TestRun_SuppressedWhenAnnouncedToday(t *testing.T) {
	f := newFixture(&chat.Announcement{Link: priorLink, PostedAt: now.Add(-time.Hour)})
	w := f.workflow(t, gate.Policy{Enforce: true, FromHour: 9, UntilHour: 17})

	res, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Suppressed())
	assert.Equal(t, gate.ReasonAlreadyRan, res.Decision.Reason)
	assert.Empty(t, f.notifier.messages)
	assert.Zero(t, f.creator.calls.Load())
	assert.Empty(t, f.rankings.links)
}

func TestRun_ForcedPostsDisregardFirst(t *testing.T) {
	f := newFixture(&chat.Announcement{Link: priorLink, PostedAt: now.Add(-time.Hour)})
	w := f.workflow(t, gate.Policy{Enforce: true, Force: true, FromHour: 9, UntilHour: 17})

	res, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Decision.Forced)
	require.Len(t, f.notifier.messages, 3)
	assert.Equal(t, "Please disregard the following messages!", f.notifier.messages[0])
	assert.True(t, strings.HasPrefix(f.notifier.messages[1], "Happy Wednesday!"))
	assert.Contains(t, f.notifier.messages[2], newLink)
}

func TestRun_NoPriorAnnouncement(t *testing.T) {
	f := newFixture(nil)
	w := f.workflow(t, gate.Policy{Enforce: true, FromHour: 9, UntilHour: 17})

	res, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.rankings.links)
	assert.Zero(t, f.directory.calls.Load())
	assert.Nil(t, res.Records)
	assert.Equal(t, []string{"A new tournament is up at <" + newLink + ">!"}, f.notifier.messages)
}

func TestRun_WithoutChatLookup(t *testing.T) {
	f := newFixture(nil)
	w, err := New(Deps{
		Rankings: f.rankings,
		Creator:  f.creator,
		Notifier: f.notifier,
		Logger:   logger.New(logger.LevelError, &strings.Builder{}),
	}, Options{})
	require.NoError(t, err)

	res, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Prior)
	assert.Len(t, f.notifier.messages, 1)
}

func TestRun_Failures(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(f *fixture)
		wantErr error
		wantMsg string
	}{
		{
			name:    "lookup fails",
			setup:   func(f *fixture) { f.announcements.err = errBoom },
			wantErr: errBoom,
			wantMsg: "finding previous competition",
		},
		{
			name:    "rankings fail",
			setup:   func(f *fixture) { f.rankings.err = errBoom },
			wantErr: errBoom,
			wantMsg: "fetching results",
		},
		{
			name:    "creation fails",
			setup:   func(f *fixture) { f.creator.err = errBoom },
			wantErr: errBoom,
			wantMsg: "creating tournament",
		},
		{
			name:    "no link",
			setup:   func(f *fixture) { f.creator.link = "" },
			wantErr: ErrNoTournamentLink,
		},
		{
			name:    "posting fails",
			setup:   func(f *fixture) { f.notifier.err = errBoom },
			wantErr: errBoom,
			wantMsg: "posting message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(yesterday())
			tt.setup(f)
			w := f.workflow(t, gate.Policy{})

			res, err := w.Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Empty(t, f.notifier.messages)
		})
	}
}

func TestRun_SettleDelayHonorsCancel(t *testing.T) {
	f := newFixture(nil)
	w, err := New(Deps{
		Rankings: f.rankings,
		Creator:  f.creator,
		Notifier: f.notifier,
		Logger:   logger.New(logger.LevelError, &strings.Builder{}),
	}, Options{SettleDelay: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, f.notifier.messages, 1)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{}, Options{})
	assert.Error(t, err)
}

// rendezvous fails unless the other side of the join is running at the same time
func rendezvous(ctx context.Context, mine chan struct{}, theirs <-chan struct{}) error {
	close(mine)
	select {
	case <-theirs:
		return nil
	case <-time.After(2 * time.Second):
		return errors.New("the other stage never started")
	case <-ctx.Done():
		return ctx.Err()
	}
}

type barrierRankings struct {
	mine, theirs chan struct{}
}

func (b *barrierRankings) Results(ctx context.Context, _ string) ([]*competitor.Competitor, error) {
	if err := rendezvous(ctx, b.mine, b.theirs); err != nil {
		return nil, err
	}
	return scraper.ParseRankings(strings.NewReader(threeRows))
}

type barrierCreator struct {
	mine, theirs chan struct{}
}

func (b *barrierCreator) CreateTournament(ctx context.Context) (string, error) {
	if err := rendezvous(ctx, b.mine, b.theirs); err != nil {
		return "", err
	}
	return newLink, nil
}

func TestRun_FetchesResultsWhileCreating(t *testing.T) {
	fetching, creating := make(chan struct{}), make(chan struct{})
	note := &fakeNotifier{}
	w, err := New(Deps{
		Announcements: &fakeAnnouncements{prior: yesterday()},
		Rankings:      &barrierRankings{mine: fetching, theirs: creating},
		Creator:       &barrierCreator{mine: creating, theirs: fetching},
		Notifier:      note,
		Logger:        logger.New(logger.LevelError, &strings.Builder{}),
		Now:           func() time.Time { return now },
	}, Options{Policy: gate.Policy{Location: time.UTC}})
	require.NoError(t, err)

	res, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
	assert.Equal(t, newLink, res.TournamentLink)
	assert.Len(t, note.messages, 2)
}

func TestRun_ReportsMatchConfidence(t *testing.T) {
	f := newFixture(yesterday())
	f.rankings.html = `<table id="competition-rank-table"><tbody>
<tr><td class="rank"><span>1</span></td><td class="username"><a>johnsmith99</a></td><td class="wpm">90</td><td class="tests_taken">3</td></tr>
<tr><td class="rank"><span>2</span></td><td class="username"><a>Ada Lovelace</a></td><td class="wpm">85</td><td class="tests_taken">1</td></tr>
<tr><td class="rank"><span>3</span></td><td class="username"><a>zzz</a></td><td class="wpm">40</td><td class="tests_taken">1</td></tr>
</tbody></table>`
	f.directory.members = []competitor.Member{
		{ID: "U1", DisplayName: "John Smith"},
		{ID: "U2", DisplayName: "ada lovelace"},
	}

	var logs bytes.Buffer
	mgr := metrics.NewManager()
	w, err := New(Deps{
		Announcements: f.announcements,
		Directory:     f.directory,
		Rankings:      f.rankings,
		Creator:       f.creator,
		Notifier:      f.notifier,
		Metrics:       mgr,
		Logger:        logger.New(logger.LevelDebug, &logs),
		Now:           func() time.Time { return now },
	}, Options{Policy: gate.Policy{Location: time.UTC}})
	require.NoError(t, err)

	res, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matched)

	expected := `
# HELP fastfingers_bot_directory_matches_total Competitor records by directory match confidence.
# TYPE fastfingers_bot_directory_matches_total counter
fastfingers_bot_directory_matches_total{confidence="exact"} 1
fastfingers_bot_directory_matches_total{confidence="none"} 1
fastfingers_bot_directory_matches_total{confidence="pattern"} 1
`
	err = testutil.GatherAndCompare(mgr.Registry(), strings.NewReader(expected), "fastfingers_bot_directory_matches_total")
	assert.NoError(t, err)

	assert.Contains(t, logs.String(), `"confidence":"exact"`)
	assert.Contains(t, logs.String(), `"confidence":"pattern"`)
}
