package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/roach88/casegrid/internal/harness"
	"github.com/roach88/casegrid/internal/materialize"
)

// ErrUnsupportedBrowser is returned for browser ids outside the Chromium family.
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// Options configure the sessions a Factory opens.
type Options struct {
	BaseURL      string
	ArtifactsDir string
	Headless     bool

	// RemoteURL, if set, attaches to a running browser's DevTools
	// websocket instead of launching one.
	RemoteURL string

	Logger *slog.Logger
}

// Factory opens chromedp sessions.
type Factory struct {
	opts Options
}

// NewFactory creates a factory. BaseURL is required.
func NewFactory(opts Options) (*Factory, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("browser: base URL is required")
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Factory{opts: opts}, nil
}

// SessionFactory adapts f for the harness.
func (f *Factory) SessionFactory() harness.SessionFactory {
	return func(ctx context.Context, env materialize.Environment) (harness.Session, error) {
		return f.Open(ctx, env)
	}
}

// Open starts a browser for env and returns a blank session.
func (f *Factory) Open(ctx context.Context, env materialize.Environment) (*Session, error) {
	log := f.opts.Logger.With("browser", env.Browser)

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if f.opts.RemoteURL != "" {
		if err := checkBrowser(env.Browser); err != nil {
			return nil, err
		}
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.WithoutCancel(ctx), f.opts.RemoteURL)
	} else {
		allocOpts, err := allocatorOptions(env.Browser, f.opts.Headless)
		if err != nil {
			return nil, err
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	}

	tab, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			log.Warn(fmt.Sprintf(format, args...))
		}),
	)

	chromedp.ListenTarget(tab, func(ev any) {
		if ev, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			args := make([]string, len(ev.Args))
			for i, arg := range ev.Args {
				args[i] = string(arg.Value)
			}
			log.Debug("page console", "type", string(ev.Type), "message", strings.Join(args, " "))
		}
	})

	s := &Session{
		tab:     tab,
		baseURL: f.opts.BaseURL,
		dir:     f.opts.ArtifactsDir,
		logger:  log,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}

	// The first Run starts the browser.
	if err := s.run(ctx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("start %s: %w", env.Browser, err)
	}
	return s, nil
}

func checkBrowser(name string) error {
	switch strings.ToLower(name) {
	case "chromium", "chrome", "msedge":
		return nil
	}
	return fmt.Errorf("%w %q: only chromium, chrome and msedge are driven", ErrUnsupportedBrowser, name)
}

// execCandidates lists executable names tried for each browser id.
// Chromium uses chromedp's own discovery.
var execCandidates = map[string][]string{
	"chrome": {"google-chrome", "google-chrome-stable", "chrome"},
	"msedge": {"microsoft-edge", "microsoft-edge-stable", "msedge"},
}

func allocatorOptions(browser string, headless bool) ([]chromedp.ExecAllocatorOption, error) {
	if err := checkBrowser(browser); err != nil {
		return nil, err
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	opts = append(opts, chromedp.WindowSize(1280, 900))

	candidates, ok := execCandidates[strings.ToLower(browser)]
	if !ok {
		return opts, nil
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return append(opts, chromedp.ExecPath(path)), nil
		}
	}
	return nil, fmt.Errorf("%s executable not found (tried %s)", browser, strings.Join(candidates, ", "))
}

// Session is one browser tab on the storefront.
type Session struct {
	tab     context.Context
	cancel  context.CancelFunc
	baseURL string
	dir     string
	logger  *slog.Logger
}

var _ harness.Session = (*Session)(nil)

// run executes actions on the tab, bounded by ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(s.tab)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		rctx, dcancel = context.WithDeadline(rctx, deadline)
		defer dcancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(rctx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// retry runs a click or fill primitive up to clickAttempts times.
func (s *Session) retry(ctx context.Context, what string, actions ...chromedp.Action) error {
	var err error
	for attempt := 1; attempt <= clickAttempts; attempt++ {
		if err = s.run(ctx, actions...); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		s.logger.Debug("retrying browser action", "action", what, "attempt", attempt, "error", err)
	}
	return fmt.Errorf("%s after %d attempts: %w", what, clickAttempts, err)
}

func (s *Session) Open(ctx context.Context) error {
	return s.run(ctx,
		chromedp.Navigate(s.baseURL+homePath),
		chromedp.WaitVisible(selSearchInput, chromedp.ByQuery),
	)
}

func (s *Session) Search(ctx context.Context, value string) error {
	if err := s.retry(ctx, "fill search box",
		chromedp.WaitVisible(selSearchInput, chromedp.ByQuery),
		chromedp.SetValue(selSearchInput, "", chromedp.ByQuery),
		chromedp.SendKeys(selSearchInput, value, chromedp.ByQuery),
	); err != nil {
		return err
	}
	if err := s.retry(ctx, "submit search",
		chromedp.Click(selSearchSubmit, chromedp.ByQuery),
	); err != nil {
		return err
	}
	return s.run(ctx, chromedp.WaitVisible(selHeading, chromedp.ByQuery))
}

func (s *Session) IsResultsDisplayed(ctx context.Context) (bool, error) {
	n, err := s.ResultCount(ctx)
	return n > 0, err
}

func (s *Session) ResultCount(ctx context.Context) (int, error) {
	var n int
	err := s.run(ctx, chromedp.Evaluate(countScript(selProduct), &n))
	return n, err
}

func (s *Session) AddRandomResultToCart(ctx context.Context) error {
	var n int
	if err := s.run(ctx, chromedp.Evaluate(countScript(selAddToCart), &n)); err != nil {
		return err
	}
	if n == 0 {
		return errors.New("no add-to-cart buttons on the page")
	}
	i := rand.Intn(n)
	s.logger.Debug("adding result to cart", "index", i, "of", n)

	if err := s.retry(ctx, "click add to cart",
		chromedp.Evaluate(clickScript(selAddToCart, i), nil),
	); err != nil {
		return err
	}

	// The confirmation layer animates in; give it a bounded wait.
	wctx, cancel := context.WithTimeout(ctx, defaultCartWait*time.Second)
	defer cancel()
	if err := s.run(wctx, chromedp.WaitVisible(selCartOverlay, chromedp.ByQuery)); err != nil && ctx.Err() == nil {
		s.logger.Debug("cart confirmation not visible yet", "error", err)
	}
	return ctx.Err()
}

func (s *Session) IsCartConfirmed(ctx context.Context) (bool, error) {
	var visible bool
	err := s.run(ctx, chromedp.Evaluate(visibleScript(selCartOverlay), &visible))
	return visible, err
}

func (s *Session) CartCount(ctx context.Context) (int, error) {
	var text string
	if err := s.run(ctx, chromedp.Evaluate(textScript(selCartQuantity), &text)); err != nil {
		return 0, err
	}
	return parseCount(text)
}

func (s *Session) IsNoResultsShown(ctx context.Context) (bool, error) {
	var visible bool
	err := s.run(ctx, chromedp.Evaluate(visibleScript(selNoResults), &visible))
	return visible, err
}

func (s *Session) ValidationMessage(ctx context.Context) (string, error) {
	var text string
	err := s.run(ctx, chromedp.Evaluate(textScript(selNoResults), &text))
	return strings.TrimSpace(text), err
}

// Screenshot writes a PNG of the viewport to <ArtifactsDir>/<name>.png.
func (s *Session) Screenshot(ctx context.Context, name string) (string, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return "", fmt.Errorf("create artifacts directory: %w", err)
		}
	}
	path := filepath.Join(s.dir, name+".png")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

// Close shuts the tab and, for launched browsers, the browser process.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

func countScript(sel string) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, strconv.Quote(sel))
}

func clickScript(sel string, i int) string {
	return fmt.Sprintf(`document.querySelectorAll(%s)[%d].click()`, strconv.Quote(sel), i)
}

func visibleScript(sel string) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).some(e => {
	const st = window.getComputedStyle(e);
	return st.display !== 'none' && st.visibility !== 'hidden' && e.getClientRects().length > 0;
})`, strconv.Quote(sel))
}

func textScript(sel string) string {
	return fmt.Sprintf(`(() => { const e = document.querySelector(%s); return e ? e.textContent : ''; })()`, strconv.Quote(sel))
}

// parseCount reads the integer in a counter badge. Blank text is zero.
func parseCount(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", text, err)
	}
	return n, nil
}
