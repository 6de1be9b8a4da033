package step

import "context"

// AppActions is the fixed verb set the interpreter drives.
// Each call may block until the target UI state is reachable; implementations
// must honor ctx cancellation and deadlines.
type AppActions interface {
	Open(ctx context.Context) error
	Search(ctx context.Context, value string) error
	IsResultsDisplayed(ctx context.Context) (bool, error)
	ResultCount(ctx context.Context) (int, error)
	AddRandomResultToCart(ctx context.Context) error
	IsCartConfirmed(ctx context.Context) (bool, error)
	CartCount(ctx context.Context) (int, error)
	IsNoResultsShown(ctx context.Context) (bool, error)
	ValidationMessage(ctx context.Context) (string, error)
}
