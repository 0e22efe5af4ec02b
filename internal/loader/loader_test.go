// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/worksheet"
)

// recordingEvaluator records calls and the store size observed at each call.
type recordingEvaluator struct {
	store    *session.Store
	calls    []string
	sizes    []int
	failOn   map[string]error
	inFlight int
	maxSeen  int
}

func (r *recordingEvaluator) Evaluate(ctx context.Context, query string) ([]session.ResultGroup, error) {
	r.inFlight++
	defer func() { r.inFlight-- }()
	if r.inFlight > r.maxSeen {
		r.maxSeen = r.inFlight
	}

	r.calls = append(r.calls, query)
	if r.store != nil {
		r.sizes = append(r.sizes, r.store.Len())
	}
	if err, ok := r.failOn[query]; ok {
		return nil, err
	}
	return []session.ResultGroup{{Result: "out:" + query}}, nil
}

func TestReplayOrdering(t *testing.T) {
	store := session.NewStore()
	ev := &recordingEvaluator{store: store}
	l := New(store, ev)

	r, err := l.Replay(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ev.calls)
	// Each call starts only after the previous result was appended.
	assert.Equal(t, []int{0, 1, 2}, ev.sizes)
	assert.Equal(t, 1, ev.maxSeen)
	assert.Equal(t, []string{"a", "b", "c"}, session.Requests(store.Entries()))
	assert.Equal(t, Report{Requested: 3, Appended: 3, Failed: 0, LastIndex: 2}, r)
}

func TestReplayContinuesAfterFailure(t *testing.T) {
	store := session.NewStore()
	ev := &recordingEvaluator{
		store:  store,
		failOn: map[string]error{"b": apperrors.New(apperrors.EvaluationFailed, "syntax error")},
	}
	l := New(store, ev)

	r, err := l.Replay(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ev.calls)
	entries := store.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, 1, r.Failed)

	failed := entries[1]
	assert.Equal(t, "b", failed.Request)
	require.Len(t, failed.Results, 1)
	require.Len(t, failed.Results[0].Out, 1)
	assert.True(t, failed.Results[0].Out[0].IsMessage)
	assert.Equal(t, "Evaluation::failed", failed.Results[0].Out[0].Prefix)
	assert.Equal(t, "syntax error", failed.Results[0].Out[0].Text)
	assert.Equal(t, "out:c", entries[2].Results[0].Result)
}

func TestReplayEmpty(t *testing.T) {
	store := session.NewStore()
	ev := &recordingEvaluator{}
	finished := 0
	l := New(store, ev)
	l.Hooks.OnFinished = func(r Report) {
		finished++
		assert.Equal(t, -1, r.LastIndex)
	}

	r, err := l.Replay(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ev.calls)
	assert.Equal(t, 0, r.Appended)
	assert.Equal(t, 1, finished)
}

func TestReplayHooks(t *testing.T) {
	store := session.NewStore()
	store.Append(session.NewEntry("existing"))
	l := New(store, &recordingEvaluator{})

	var started []string
	var indices []int
	var final Report
	l.Hooks = Hooks{
		OnStart:    func(i int, q string) { started = append(started, fmt.Sprintf("%d:%s", i, q)) },
		OnEntry:    func(i, idx int, e session.QueryEntry) { indices = append(indices, idx) },
		OnFinished: func(r Report) { final = r },
	}

	_, err := l.Replay(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0:x", "1:y"}, started)
	assert.Equal(t, []int{1, 2}, indices)
	assert.Equal(t, 2, final.LastIndex)
}

func TestReplayCancellationKeepsPartialSession(t *testing.T) {
	store := session.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	ev := EvaluatorFunc(func(ctx context.Context, q string) ([]session.ResultGroup, error) {
		calls++
		if q == "b" {
			cancel()
			return nil, ctx.Err()
		}
		return []session.ResultGroup{{Result: q}}, nil
	})
	l := New(store, ev)

	r, err := l.Replay(ctx, []string{"a", "b", "c"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"a"}, session.Requests(store.Entries()))
	assert.Equal(t, 1, r.Appended)
}

func TestReplayTimeoutIsAFailure(t *testing.T) {
	store := session.NewStore()
	ev := EvaluatorFunc(func(ctx context.Context, q string) ([]session.ResultGroup, error) {
		if q == "slow" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []session.ResultGroup{{Result: q}}, nil
	})
	l := New(store, ev)
	l.EvalTimeout = 20 * time.Millisecond

	r, err := l.Replay(context.Background(), []string{"slow", "fast"})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Failed)

	entries := store.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Evaluation::timeout", entries[0].Results[0].Out[0].Prefix)
	assert.Equal(t, "fast", entries[1].Results[0].Result)
}

func TestReplayWithLimiter(t *testing.T) {
	store := session.NewStore()
	ev := &recordingEvaluator{store: store}
	l := New(store, ev)
	l.Limiter = rate.NewLimiter(rate.Inf, 1)

	_, err := l.Replay(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ev.calls)
}

func TestLoadReplacesSession(t *testing.T) {
	store := session.NewStore()
	store.Append(session.NewEntry("old"))
	l := New(store, &recordingEvaluator{})

	_, err := l.Load(context.Background(), []string{"new"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, session.Requests(store.Entries()))
}

func savedPayload(t *testing.T, n int) []byte {
	t.Helper()
	entries := make([]session.QueryEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, session.QueryEntry{
			Request: fmt.Sprintf("q%d", i),
			Results: []session.ResultGroup{{Result: fmt.Sprintf("r%d", i)}},
		})
	}
	payload, err := worksheet.Encode(worksheet.Serialize(entries))
	require.NoError(t, err)
	return payload
}

func TestRestoreNeverEvaluates(t *testing.T) {
	store := session.NewStore()
	ev := &recordingEvaluator{store: store}
	l := New(store, ev)

	require.NoError(t, l.Restore(savedPayload(t, 5)))

	assert.Empty(t, ev.calls)
	entries := store.Entries()
	require.Len(t, entries, 5)
	assert.Equal(t, "q4", entries[4].Request)
	assert.Equal(t, "r4", entries[4].Results[0].Result)
}

func TestRestoreIsAtomicForObservers(t *testing.T) {
	store := session.NewStore()
	store.Append(session.NewEntry("before"))
	l := New(store, &recordingEvaluator{})

	var sizes []int
	unsubscribe := store.Subscribe(func(entries []session.QueryEntry) { sizes = append(sizes, len(entries)) })
	defer unsubscribe()

	require.NoError(t, l.Restore(savedPayload(t, 3)))
	assert.Equal(t, []int{3}, sizes)
}

func TestRestoreKeepsSessionOnDecodeError(t *testing.T) {
	store := session.NewStore()
	store.Append(session.NewEntry("keep me"))
	l := New(store, &recordingEvaluator{})

	err := l.Restore([]byte(`[{"request":"a","results":[]},{"results":[]}]`))
	require.Error(t, err)

	var de *worksheet.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "[1].request", de.Path)
	assert.Equal(t, []string{"keep me"}, session.Requests(store.Entries()))
}

func TestErrorGroup(t *testing.T) {
	g := ErrorGroup(apperrors.Wrap(apperrors.EvaluationFailed, "server error", errors.New("502")))
	assert.Equal(t, "Evaluation::failed", g.Out[0].Prefix)
	assert.Equal(t, "server error (502)", g.Out[0].Text)

	g = ErrorGroup(fmt.Errorf("eval: %w", apperrors.New(apperrors.AuthRequired, "login required")))
	assert.Equal(t, "Evaluation::auth", g.Out[0].Prefix)

	g = ErrorGroup(errors.New("plain"))
	assert.Equal(t, "plain", g.Out[0].Text)
}
