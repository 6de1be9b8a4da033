package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FakeApp is a scripted application used in place of a browser session.
// It satisfies step.AppActions and harness.Session.
//
// Set the exported fields to describe the page state the steps will observe.
// Calls records every verb invoked, in order.
type FakeApp struct {
	ResultsDisplayed bool
	Results          int
	CartConfirmed    bool
	Cart             int
	NoResults        bool
	Message          string

	// Errors makes the named verb fail with the given error.
	Errors map[string]error

	// Block makes the named verb wait until its context is done.
	Block map[string]bool

	// ScreenshotDir, if set, receives an empty PNG per Screenshot call.
	ScreenshotDir string

	mu       sync.Mutex
	calls    []string
	searched []string
	closed   bool
}

// Calls returns the verbs invoked so far.
func (a *FakeApp) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// Searched returns the values passed to Search.
func (a *FakeApp) Searched() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.searched...)
}

// Closed reports whether Close was called.
func (a *FakeApp) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *FakeApp) enter(ctx context.Context, verb string) error {
	a.mu.Lock()
	a.calls = append(a.calls, verb)
	block := a.Block[verb]
	err := a.Errors[verb]
	a.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (a *FakeApp) Open(ctx context.Context) error {
	return a.enter(ctx, "open")
}

func (a *FakeApp) Search(ctx context.Context, value string) error {
	if err := a.enter(ctx, "search"); err != nil {
		return err
	}
	a.mu.Lock()
	a.searched = append(a.searched, value)
	a.mu.Unlock()
	return nil
}

func (a *FakeApp) IsResultsDisplayed(ctx context.Context) (bool, error) {
	return a.ResultsDisplayed, a.enter(ctx, "is_results_displayed")
}

func (a *FakeApp) ResultCount(ctx context.Context) (int, error) {
	return a.Results, a.enter(ctx, "result_count")
}

func (a *FakeApp) AddRandomResultToCart(ctx context.Context) error {
	return a.enter(ctx, "add_random_result_to_cart")
}

func (a *FakeApp) IsCartConfirmed(ctx context.Context) (bool, error) {
	return a.CartConfirmed, a.enter(ctx, "is_cart_confirmed")
}

func (a *FakeApp) CartCount(ctx context.Context) (int, error) {
	return a.Cart, a.enter(ctx, "cart_count")
}

func (a *FakeApp) IsNoResultsShown(ctx context.Context) (bool, error) {
	return a.NoResults, a.enter(ctx, "is_no_results_shown")
}

func (a *FakeApp) ValidationMessage(ctx context.Context) (string, error) {
	return a.Message, a.enter(ctx, "validation_message")
}

// Screenshot records the call and returns the artifact path.
func (a *FakeApp) Screenshot(ctx context.Context, name string) (string, error) {
	if err := a.enter(ctx, "screenshot"); err != nil {
		return "", err
	}
	path := filepath.Join(a.ScreenshotDir, name+".png")
	if a.ScreenshotDir == "" {
		return path, nil
	}
	if err := os.WriteFile(path, []byte{}, 0644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

// Close marks the session closed.
func (a *FakeApp) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}
