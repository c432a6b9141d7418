// Package loader implements the authenticated route-loading contract: every dashboard
// view is preceded by a fresh authenticated read or by a redirect.
package loader

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jonathan/egresados-admin/internal/api"
)

// LoginPath is where unauthenticated and invalidated sessions are sent.
const LoginPath = "/"

// Reason tells why a loader redirected.
type Reason int

// Redirect reasons.
const (
	ReasonNone Reason = iota
	ReasonUnauthenticated
	ReasonSessionInvalid
	ReasonTransportFailure
)

func (r Reason) String() string {
	switch r {
	case ReasonUnauthenticated:
		return "unauthenticated"
	case ReasonSessionInvalid:
		return "session_invalid"
	case ReasonTransportFailure:
		return "transport_failure"
	default:
		return "none"
	}
}

// Session is the token handle a loader needs.
type Session interface {
	Token(ctx context.Context) (string, bool, error)
	Clear(ctx context.Context) error
}

// Recorder counts loader outcomes.
type Recorder interface {
	LoaderOutcome(route, outcome string)
}

// Options configures one loader invocation.
type Options struct {
	// Route names the view in logs and metrics.
	Route string
	// Fallback is the redirect target on transport failure; LoginPath when empty.
	Fallback string
	Logger   *zerolog.Logger
	Recorder Recorder
}

// Outcome is the result of a loader: data to render, a redirect, or nothing at all
// when the request was cancelled.
type Outcome[T any] struct {
	Data      T
	Redirect  string
	Reason    Reason
	Cancelled bool
}

// IsRedirect reports whether the view must not be rendered and the browser sent elsewhere.
func (o Outcome[T]) IsRedirect() bool {
	return o.Redirect != ""
}

// Outcome labels used in metrics.
const (
	outcomeData      = "data"
	outcomeCancelled = "cancelled"
)

// Load runs fetch on behalf of sess. It never calls fetch without a stored token,
// clears the token when the API answers with an error envelope, and discards the
// result when ctx was cancelled while fetch was outstanding.
func Load[T any](ctx context.Context, sess Session, fetch func(context.Context) (T, error), opts Options) Outcome[T] {
	log := opts.logger()

	_, ok, err := sess.Token(ctx)
	if err != nil {
		log.Error().Err(err).Str("route", opts.Route).Msg("failed to read session token")
		return finish(opts, redirectTo[T](opts.fallback(), ReasonTransportFailure))
	}
	if !ok {
		return finish(opts, redirectTo[T](LoginPath, ReasonUnauthenticated))
	}

	data, err := fetch(ctx)
	if ctx.Err() != nil {
		log.Debug().Str("route", opts.Route).Msg("discarding result of cancelled load")
		return finish(opts, Outcome[T]{Cancelled: true})
	}

	switch api.Classify(err) {
	case api.KindNone:
		return finish(opts, Outcome[T]{Data: data})

	case api.KindUnauthenticated:
		return finish(opts, redirectTo[T](LoginPath, ReasonUnauthenticated))

	case api.KindSessionInvalid:
		if clearErr := sess.Clear(ctx); clearErr != nil {
			log.Error().Err(clearErr).Str("route", opts.Route).Msg("failed to clear rejected token")
		}
		log.Info().Str("route", opts.Route).Msg("session rejected by api, token cleared")
		return finish(opts, redirectTo[T](LoginPath, ReasonSessionInvalid))

	default:
		var trErr *api.TransportError
		evt := log.Error().Err(err).Str("route", opts.Route)
		if errors.As(err, &trErr) && trErr.StatusCode != 0 {
			evt = evt.Int("status", trErr.StatusCode)
		}
		evt.Msg("loader transport failure")
		return finish(opts, redirectTo[T](opts.fallback(), ReasonTransportFailure))
	}
}

// LoadList is Load for list endpoints: every raw record is mapped through project.
func LoadList[R, P any](ctx context.Context, sess Session, fetch func(context.Context) ([]R, error), project func([]R) []P, opts Options) Outcome[[]P] {
	out := Load(ctx, sess, fetch, opts)
	if out.IsRedirect() || out.Cancelled {
		return Outcome[[]P]{Redirect: out.Redirect, Reason: out.Reason, Cancelled: out.Cancelled}
	}
	return Outcome[[]P]{Data: project(out.Data)}
}

func redirectTo[T any](to string, reason Reason) Outcome[T] {
	return Outcome[T]{Redirect: to, Reason: reason}
}

func finish[T any](opts Options, out Outcome[T]) Outcome[T] {
	if opts.Recorder != nil {
		label := outcomeData
		switch {
		case out.Cancelled:
			label = outcomeCancelled
		case out.IsRedirect():
			label = out.Reason.String()
		}
		opts.Recorder.LoaderOutcome(opts.Route, label)
	}
	return out
}

func (o Options) fallback() string {
	if o.Fallback == "" {
		return LoginPath
	}
	return o.Fallback
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}
