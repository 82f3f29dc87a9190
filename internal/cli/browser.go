package cli

import (
	"context"
	"sync"

	"github.com/pfrederiksen/fastfingers-bot/internal/browser"
	"github.com/pfrederiksen/fastfingers-bot/internal/config"
)

func browserOptions(cfg *config.Config) browser.Options {
	opts := browser.Options{
		Headless: !cfg.Headful(),
		SiteURL:  cfg.SiteURL,
		Credentials: browser.Credentials{
			Username: cfg.TwitterUsername,
			Password: cfg.TwitterPassword,
		},
	}
	if cfg.NoSandbox {
		opts.ExtraFlags = map[string]interface{}{"no-sandbox": true}
	}
	return opts
}

type sessionOpener func(ctx context.Context, opts browser.Options) (tournamentSession, error)

// openChrome starts a real browser session
func openChrome(ctx context.Context, opts browser.Options) (tournamentSession, error) {
	return browser.Open(ctx, opts)
}

type tournamentSession interface {
	CreateTournament(ctx context.Context) (string, error)
	Close() error
}

// lazyBrowser starts Chrome on the first CreateTournament call, so runs that
// end at the gate never launch a browser. Close must be deferred by the owner.
type lazyBrowser struct {
	ctx  context.Context
	opts browser.Options
	open sessionOpener

	mu      sync.Mutex
	session tournamentSession
}

func newLazyBrowser(ctx context.Context, opts browser.Options, open sessionOpener) *lazyBrowser {
	return &lazyBrowser{ctx: ctx, opts: opts, open: open}
}

func (b *lazyBrowser) CreateTournament(ctx context.Context) (string, error) {
	b.mu.Lock()
	if b.session == nil {
		session, err := b.open(b.ctx, b.opts)
		if err != nil {
			b.mu.Unlock()
			return "", err
		}
		b.session = session
	}
	session := b.session
	b.mu.Unlock()

	return session.CreateTournament(ctx)
}

func (b *lazyBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}
