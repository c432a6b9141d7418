package bulk_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/api/apitest"
	"github.com/jonathan/egresados-admin/internal/bulk"
	"github.com/jonathan/egresados-admin/internal/notify"
	"github.com/jonathan/egresados-admin/internal/session"
	"github.com/jonathan/egresados-admin/internal/types"
)

type counts map[string]int

func (c counts) BulkAction(action, outcome string) { c[action+"/"+outcome]++ }

func newClient(t *testing.T, fake *apitest.Server, token string) *api.Client {
	t.Helper()
	sess, err := session.New("sid", session.NewMemoryStore())
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, sess.SetToken(context.Background(), token))
	}
	return api.NewClient(fake.URL(), sess, nil)
}

func TestSubmit_EmptySelection(t *testing.T) {
	fake := apitest.New(t)
	client := newClient(t, fake, "T1")
	rec := counts{}
	s := bulk.New(api.EndpointEgresadoApprove, client.ApproveEgresados, bulk.WithRecorder(rec))

	for _, ids := range [][]string{nil, {}} {
		n := s.Submit(context.Background(), ids)
		assert.True(t, n.IsError())
		assert.Equal(t, notify.TitleEmpty, n.Title)
		assert.Equal(t, notify.NoAction, n.Action)
	}

	assert.Zero(t, fake.CallCount())
	assert.Equal(t, 2, rec[api.EndpointEgresadoApprove+"/"+bulk.OutcomeEmptySelection])
}

func TestSubmit_Success(t *testing.T) {
	fake := apitest.New(t)
	fake.Authorize("T1")
	fake.SetEgresados(types.RawEgresado{ID: "E1"}, types.RawEgresado{ID: "E2"})
	client := newClient(t, fake, "T1")
	s := bulk.New(api.EndpointEgresadoApprove, client.ApproveEgresados,
		bulk.WithSuccessMessage("Egresados approved."))

	n := s.Submit(context.Background(), []string{"E1", "E2"})

	assert.False(t, n.IsError())
	assert.Equal(t, notify.TitleSuccess, n.Title)
	assert.Equal(t, notify.Refresh, n.Action)
	assert.Contains(t, n.Description, "Egresados approved.")
	assert.Equal(t, 1, fake.CallCount())
	assert.False(t, s.InFlight())

	call, _ := fake.LastCall()
	assert.JSONEq(t, `["E1","E2"]`, string(call.Body))
}

func TestSubmit_ServerMessage(t *testing.T) {
	fake := apitest.New(t)
	client := newClient(t, fake, "revoked")
	s := bulk.New(api.EndpointFormPublish, client.PublishForms)

	n := s.Submit(context.Background(), []string{"F1"})

	assert.True(t, n.IsError())
	assert.Equal(t, notify.TitleFailure, n.Title)
	assert.Equal(t, "Token expired or invalid", n.Description)
	assert.Equal(t, notify.TryAgain, n.Action)
}

func TestSubmit_TransportFailure(t *testing.T) {
	fake := apitest.New(t)
	client := newClient(t, fake, "T1")
	fake.Close()
	rec := counts{}
	s := bulk.New(api.EndpointFormPublish, client.PublishForms, bulk.WithRecorder(rec))

	n := s.Submit(context.Background(), []string{"F1"})

	assert.True(t, n.IsError())
	assert.Equal(t, notify.TryAgain, n.Action)
	assert.Contains(t, n.Description, "Submission failed")
	assert.Equal(t, 1, rec[api.EndpointFormPublish+"/"+bulk.OutcomeTransport])
	assert.False(t, s.InFlight())
}

func TestSubmit_NoToken(t *testing.T) {
	fake := apitest.New(t)
	client := newClient(t, fake, "")
	s := bulk.New(api.EndpointFormPublish, client.PublishForms)

	n := s.Submit(context.Background(), []string{"F1"})
	assert.True(t, n.IsError())
	assert.Equal(t, bulk.MessageUnauthorized, n.Description)
	assert.Zero(t, fake.CallCount())
}

func TestSubmit_RejectsWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	s := bulk.New("test", func(context.Context, []string) error {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return nil
	})

	done := make(chan notify.Notification)
	go func() { done <- s.Submit(context.Background(), []string{"1"}) }()

	<-started
	assert.True(t, s.InFlight())

	second := s.Submit(context.Background(), []string{"1"})
	assert.True(t, second.IsError())
	assert.Equal(t, bulk.MessageBusy, second.Description)

	close(release)
	first := <-done
	assert.False(t, first.IsError())
	assert.False(t, s.InFlight())

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestSubmit_IndependentFlags(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	blocking := bulk.New("approve", func(context.Context, []string) error {
		close(started)
		<-release
		return nil
	})
	other := bulk.New("publish", func(context.Context, []string) error { return nil })

	go blocking.Submit(context.Background(), []string{"1"})
	<-started

	n := other.Submit(context.Background(), []string{"2"})
	assert.False(t, n.IsError())
	close(release)
}
