package link

import "context"

// WidgetResult is delivered once by a launched widget: either a public token
// or a cancellation.
type WidgetResult struct {
	PublicToken string
	Metadata    map[string]any
	Cancelled   bool
	Err         error
}

// Widget is the hosted account-linking UI. Launch hands it the link token and
// returns the channel its single result will arrive on.
type Widget interface {
	Launch(ctx context.Context, linkToken string) (<-chan WidgetResult, error)
}

// WidgetFunc adapts a function that blocks until the user finishes into a
// Widget.
type WidgetFunc func(ctx context.Context, linkToken string) WidgetResult

func (f WidgetFunc) Launch(ctx context.Context, linkToken string) (<-chan WidgetResult, error) {
	ch := make(chan WidgetResult, 1)
	go func() {
		ch <- f(ctx, linkToken)
	}()
	return ch, nil
}
