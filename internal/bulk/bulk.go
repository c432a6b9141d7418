// Package bulk submits a selection of row identifiers to a mutation endpoint and
// reports the result as exactly one notification.
package bulk

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/notify"
)

// Action posts ids to the API.
type Action func(ctx context.Context, ids []string) error

// Recorder counts submissions by outcome.
type Recorder interface {
	BulkAction(action, outcome string)
}

// Outcome labels.
const (
	OutcomeSuccess        = "success"
	OutcomeEmptySelection = "empty_selection"
	OutcomeBusy           = "in_flight"
	OutcomeRejected       = "rejected"
	OutcomeTransport      = "transport_failure"
	OutcomeUnauthorized   = "unauthenticated"
)

// Messages shown by the submitter.
const (
	MessageEmptySelection = "Select at least one row before submitting."
	MessageBusy           = "A submission is already in progress."
	MessageRefresh        = "Refresh to see the changes."
	MessageUnauthorized   = "Your session has ended. Log in again."
)

// Submitter runs one bulk action and tracks whether it is in flight.
// One Submitter exists per session and action, so flags are independent.
type Submitter struct {
	name     string
	action   Action
	success  string
	inFlight atomic.Bool
	recorder Recorder
	logger   *zerolog.Logger
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithRecorder counts outcomes on r.
func WithRecorder(r Recorder) Option {
	return func(s *Submitter) { s.recorder = r }
}

// WithLogger logs failures on l.
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Submitter) { s.logger = l }
}

// WithSuccessMessage sets the description of the success notification.
func WithSuccessMessage(msg string) Option {
	return func(s *Submitter) { s.success = msg }
}

// New creates a submitter for the action called name.
func New(name string, action Action, opts ...Option) *Submitter {
	nop := zerolog.Nop()
	s := &Submitter{name: name, action: action, success: "The selected rows were updated.", logger: &nop}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InFlight reports whether a submission is outstanding.
func (s *Submitter) InFlight() bool {
	return s.inFlight.Load()
}

// Submit posts ids and returns the single notification describing the result.
// An empty selection is rejected locally without a request, and so is a submit
// while another one is in flight. The list is not refetched afterwards.
func (s *Submitter) Submit(ctx context.Context, ids []string) notify.Notification {
	if len(ids) == 0 {
		s.record(OutcomeEmptySelection)
		return notify.Invalid(notify.TitleEmpty, MessageEmptySelection)
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		s.record(OutcomeBusy)
		return notify.Invalid(notify.TitleValidation, MessageBusy)
	}
	defer s.inFlight.Store(false)

	err := s.action(ctx, ids)
	switch api.Classify(err) {
	case api.KindNone:
		s.record(OutcomeSuccess)
		n := notify.Success(notify.TitleSuccess, s.success+" "+MessageRefresh)
		n.Action = notify.Refresh
		return n

	case api.KindUnauthenticated:
		s.record(OutcomeUnauthorized)
		return notify.Invalid(notify.TitleFailure, MessageUnauthorized)

	case api.KindSessionInvalid:
		s.record(OutcomeRejected)
		s.logger.Warn().Str("action", s.name).Int("count", len(ids)).Msg("bulk action rejected by api")
		return notify.Failure(api.UserMessage(err))

	default:
		s.record(OutcomeTransport)
		s.logger.Error().Err(err).Str("action", s.name).Int("count", len(ids)).Msg("bulk action failed")
		return notify.Failure(api.UserMessage(err))
	}
}

func (s *Submitter) record(outcome string) {
	if s.recorder != nil {
		s.recorder.BulkAction(s.name, outcome)
	}
}
