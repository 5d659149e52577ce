package link

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"finance-link-server/src/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TokenService is the backend half of the handshake.
type TokenService interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (models.ExchangeResult, error)
}

// Exchange drives one LinkSession through the link handshake. It is the only
// writer of the session; every transition happens under mu and network calls
// commit their outcome only if no other transition happened meanwhile.
type Exchange struct {
	tokens TokenService
	widget Widget
	log    zerolog.Logger

	mu      sync.Mutex
	session models.LinkSession
	history []models.Phase
	results <-chan WidgetResult
	ready   chan struct{}
	done    chan struct{}
	failErr error
	itemID  string
}

func NewExchange(tokens TokenService, widget Widget, log zerolog.Logger) *Exchange {
	id := uuid.NewString()
	return &Exchange{
		tokens:  tokens,
		widget:  widget,
		log:     log.With().Str("session_id", id).Logger(),
		session: models.LinkSession{ID: id, Phase: models.PhaseIdle},
		history: []models.Phase{models.PhaseIdle},
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Session returns a copy of the current session.
func (e *Exchange) Session() models.LinkSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

func (e *Exchange) Phase() models.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Phase
}

// History lists every phase the session has entered, in order.
func (e *Exchange) History() []models.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Phase(nil), e.history...)
}

// ItemID is the Plaid item the access token belongs to, once known.
func (e *Exchange) ItemID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.itemID
}

// Ready is closed when the session reaches AccessTokenReady.
func (e *Exchange) Ready() <-chan struct{} {
	return e.ready
}

// Done is closed when the session reaches a terminal phase, AccessTokenReady
// or Failed. A restart after a failure hands out a fresh channel.
func (e *Exchange) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// AccessToken hands out the access token only after the exchange confirmed it.
// A failed session returns the error that failed it.
func (e *Exchange) AccessToken() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.Phase == models.PhaseFailed && e.failErr != nil {
		return "", e.failErr
	}
	if e.session.Phase != models.PhaseAccessTokenReady {
		return "", fmt.Errorf("%w: session is %s", models.ErrNotReady, e.session.Phase)
	}
	return e.session.AccessToken, nil
}

// transition must be called with mu held.
func (e *Exchange) transition(to models.Phase) {
	from := e.session.Phase
	e.session.Phase = to
	e.history = append(e.history, to)
	e.log.Debug().Stringer("from", from).Stringer("to", to).Msg("link phase changed")
	if to == models.PhaseAccessTokenReady {
		close(e.ready)
	}
	if to.Terminal() {
		close(e.done)
	}
}

// fail must be called with mu held.
func (e *Exchange) fail(err error) error {
	e.session.FailureReason = err.Error()
	e.failErr = err
	e.transition(models.PhaseFailed)
	e.log.Error().Err(err).Msg("Link handshake failed")
	return err
}

func invalidState(kind models.ErrorKind, op string, phase models.Phase) error {
	return &models.Error{Kind: kind, Op: op, Err: fmt.Errorf("%w: cannot %s from %s", models.ErrInvalidState, op, phase)}
}

// RequestLinkToken starts (or restarts, after a failure) the handshake.
func (e *Exchange) RequestLinkToken(ctx context.Context) error {
	e.mu.Lock()
	phase := e.session.Phase
	if phase != models.PhaseIdle && phase != models.PhaseFailed {
		e.mu.Unlock()
		return invalidState(models.KindLinkTokenFetchFailed, "request link token", phase)
	}
	e.session.LinkToken = ""
	e.session.PublicToken = ""
	e.session.AccessToken = ""
	e.session.FailureReason = ""
	e.failErr = nil
	if phase == models.PhaseFailed {
		e.done = make(chan struct{})
	}
	e.itemID = ""
	e.results = nil
	e.transition(models.PhaseLinkTokenRequested)
	clientUserID := e.session.ID
	e.mu.Unlock()

	token, err := e.tokens.CreateLinkToken(ctx, clientUserID)
	if err == nil && token == "" {
		err = errors.New("empty link token")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.Phase != models.PhaseLinkTokenRequested {
		return invalidState(models.KindLinkTokenFetchFailed, "store link token", e.session.Phase)
	}
	if err != nil {
		return e.fail(&models.Error{Kind: models.KindLinkTokenFetchFailed, Op: "create link token", Err: err})
	}
	e.session.LinkToken = token
	e.transition(models.PhaseLinkTokenReady)
	e.log.Info().Msg("Link token created")
	return nil
}

// BeginLinking launches the widget with the link token. The widget runs
// without the lock held, so it may call CompletePublicToken before Launch
// returns.
func (e *Exchange) BeginLinking(ctx context.Context) error {
	e.mu.Lock()
	if e.session.Phase != models.PhaseLinkTokenReady {
		phase := e.session.Phase
		e.mu.Unlock()
		return invalidState(models.KindLinkTokenFetchFailed, "begin linking", phase)
	}
	linkToken := e.session.LinkToken
	e.results = nil
	e.transition(models.PhaseLinking)
	e.mu.Unlock()

	results, err := e.widget.Launch(ctx, linkToken)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.Phase != models.PhaseLinking {
		// A callback already moved the handshake on.
		if err != nil {
			e.log.Warn().Err(err).Msg("Link widget reported an error after completing")
		}
		return nil
	}
	if err != nil {
		e.transition(models.PhaseLinkTokenReady)
		return fmt.Errorf("launch widget: %w", err)
	}
	e.results = results
	return nil
}

// AwaitWidget blocks until the launched widget reports back and feeds the
// result into the handshake. A cancelled widget returns the session to
// LinkTokenReady so it can be launched again with the same link token.
func (e *Exchange) AwaitWidget(ctx context.Context) error {
	e.mu.Lock()
	results := e.results
	phase := e.session.Phase
	e.mu.Unlock()
	if phase != models.PhaseLinking || results == nil {
		return invalidState(models.KindTokenExchangeFailed, "await widget", phase)
	}

	var res WidgetResult
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r, ok := <-results:
		if !ok {
			r = WidgetResult{Cancelled: true}
		}
		res = r
	}

	switch {
	case res.Err != nil:
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.session.Phase != models.PhaseLinking {
			return invalidState(models.KindTokenExchangeFailed, "complete linking", e.session.Phase)
		}
		return e.fail(&models.Error{Kind: models.KindTokenExchangeFailed, Op: "link widget", Err: res.Err})
	case res.Cancelled || res.PublicToken == "":
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.session.Phase == models.PhaseLinking {
			e.results = nil
			e.transition(models.PhaseLinkTokenReady)
			e.log.Info().Msg("Link widget closed without linking")
		}
		return ErrCancelled
	}
	return e.CompletePublicToken(ctx, res.PublicToken)
}

// ErrCancelled is returned by AwaitWidget and Run when the user closes the
// widget without linking an account.
var ErrCancelled = errors.New("link cancelled")

// CompletePublicToken is the widget's success callback. It records the public
// token and immediately exchanges it.
func (e *Exchange) CompletePublicToken(ctx context.Context, publicToken string) error {
	e.mu.Lock()
	if e.session.Phase != models.PhaseLinking {
		phase := e.session.Phase
		e.mu.Unlock()
		return invalidState(models.KindTokenExchangeFailed, "complete public token", phase)
	}
	if publicToken == "" {
		err := e.fail(models.Errorf(models.KindTokenExchangeFailed, "complete public token", "empty public token"))
		e.mu.Unlock()
		return err
	}
	e.results = nil
	e.session.PublicToken = publicToken
	e.transition(models.PhasePublicTokenReceived)
	e.transition(models.PhaseExchangingToken)
	e.mu.Unlock()

	return e.ExchangeToken(ctx)
}

// ExchangeToken swaps the public token for an access token. It is only valid
// while the session is ExchangingToken.
func (e *Exchange) ExchangeToken(ctx context.Context) error {
	e.mu.Lock()
	if e.session.Phase != models.PhaseExchangingToken {
		phase := e.session.Phase
		e.mu.Unlock()
		return invalidState(models.KindTokenExchangeFailed, "exchange token", phase)
	}
	publicToken := e.session.PublicToken
	e.mu.Unlock()

	res, err := e.tokens.ExchangePublicToken(ctx, publicToken)
	if err == nil && res.AccessToken == "" {
		err = errors.New("empty access token")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.Phase != models.PhaseExchangingToken {
		return invalidState(models.KindTokenExchangeFailed, "store access token", e.session.Phase)
	}
	if err != nil {
		return e.fail(&models.Error{Kind: models.KindTokenExchangeFailed, Op: "exchange public token", Err: err})
	}
	e.session.AccessToken = res.AccessToken
	e.itemID = res.ItemID
	e.transition(models.PhaseAccessTokenReady)
	e.log.Info().Str("item_id", res.ItemID).Msg("Successfully exchanged public token")
	return nil
}

// Run performs the whole handshake: link token, widget, exchange.
func (e *Exchange) Run(ctx context.Context) error {
	if err := e.RequestLinkToken(ctx); err != nil {
		return err
	}
	if err := e.BeginLinking(ctx); err != nil {
		return err
	}

	// A callback style widget may have finished the handshake inside Launch.
	e.mu.Lock()
	phase, failErr := e.session.Phase, e.failErr
	e.mu.Unlock()
	switch phase {
	case models.PhaseAccessTokenReady:
		return nil
	case models.PhaseFailed:
		return failErr
	}
	return e.AwaitWidget(ctx)
}
