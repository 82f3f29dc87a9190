package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/chromedp/chromedp"
)

const SiteURL = "https://10fastfingers.com"

// ErrNoShareLink is returned when the created competition exposes no share link
var ErrNoShareLink = errors.New("competition share link not found")

// Credentials are the Twitter account used to sign in
type Credentials struct {
	Username string
	Password string
}

// Options configures a browser session
type Options struct {
	Headless    bool
	SiteURL     string // Defaults to SiteURL
	Credentials Credentials
	// Extra allocator flags, mainly for containers (e.g. no-sandbox)
	ExtraFlags map[string]interface{}
}

// Session is an open browser
type Session struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	site          *url.URL
	creds         Credentials

	closeOnce sync.Once
	closeErr  error
}

// Open starts a browser. The session lives until Close is called or ctx is done.
func Open(ctx context.Context, opts Options) (*Session, error) {
	siteURL := opts.SiteURL
	if siteURL == "" {
		siteURL = SiteURL
	}
	site, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("parsing site URL: %w", err)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Run with no actions starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &Session{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		site:          site,
		creds:         opts.Credentials,
	}, nil
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	for name, value := range opts.ExtraFlags {
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}
	return allocOpts
}

// Close shuts the browser down
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancelBrowser()
		s.cancelAlloc()
	})
	return s.closeErr
}

// CreateTournament signs in, creates a private competition and returns its share link
func (s *Session) CreateTournament(ctx context.Context) (string, error) {
	tabCtx, cancel := chromedp.NewContext(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var href string
	var found bool
	if err := chromedp.Run(tabCtx, s.createTasks(&href, &found)); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("creating competition: %w", err)
	}

	if !found || href == "" {
		return "", ErrNoShareLink
	}

	link, err := s.site.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parsing share link: %w", err)
	}
	return link.String(), nil
}

func (s *Session) createTasks(href *string, found *bool) chromedp.Tasks {
	var landed bool
	return chromedp.Tasks{
		// Sign in with Twitter
		chromedp.Navigate(s.page("/login")),
		chromedp.Click(`.social-login.twitter-btn-tb`, chromedp.ByQuery),
		chromedp.WaitVisible(`#username_or_email`, chromedp.ByQuery),
		chromedp.SendKeys(`#username_or_email`, s.creds.Username, chromedp.ByQuery),
		chromedp.SendKeys(`#password`, s.creds.Password, chromedp.ByQuery),
		chromedp.Click(`#oauth_form input[type="submit"]`, chromedp.ByQuery),
		chromedp.Poll(`window.location.href.includes("/typing-test/")`, &landed),

		// Create a private competition with the default language
		chromedp.Navigate(s.page("/competitions")),
		chromedp.Click(`[href="#create-game"]`, chromedp.ByQuery),
		chromedp.Click(`#private-competition`, chromedp.ByQuery),
		chromedp.Click(`#speedtestid1`, chromedp.ByQuery),
		chromedp.Click(`#link-create-competition`, chromedp.ByQuery),
		chromedp.AttributeValue(`#share-link a`, "href", href, found, chromedp.ByQuery),
	}
}

func (s *Session) page(path string) string {
	return s.site.JoinPath(path).String()
}
