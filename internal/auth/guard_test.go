package auth

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mathnb/cli/internal/errors"
	"mathnb/cli/internal/loader"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/worksheet"
)

// lockedStore rejects every call until unlocked.
type lockedStore struct {
	unlocked bool
	saved    map[string]string
}

func (s *lockedStore) check() error {
	if !s.unlocked {
		return apperrors.New(apperrors.AuthRequired, "login required")
	}
	return nil
}

func (s *lockedStore) SaveWorksheet(_ context.Context, name, content string, _ bool) (worksheet.SaveResult, error) {
	if err := s.check(); err != nil {
		return worksheet.SaveResult{}, err
	}
	s.saved[name] = content
	return worksheet.SaveResult{Result: worksheet.SaveOK}, nil
}

func (s *lockedStore) OpenWorksheet(_ context.Context, name string) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	return s.saved[name], nil
}

func (s *lockedStore) ListWorksheets(context.Context) ([]worksheet.Info, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return []worksheet.Info{{Name: "calc"}}, nil
}

func TestGuardStoreLogsInAndRetries(t *testing.T) {
	inner := &lockedStore{saved: map[string]string{}}
	logins := 0
	g := NewGate(nil, func(context.Context) (bool, error) {
		logins++
		inner.unlocked = true
		return true, nil
	})
	s := GuardStore(g, inner)

	res, err := s.SaveWorksheet(context.Background(), "calc", "[]", false)
	require.NoError(t, err)
	assert.Equal(t, worksheet.SaveOK, res.Result)
	assert.Equal(t, "[]", inner.saved["calc"])

	content, err := s.OpenWorksheet(context.Background(), "calc")
	require.NoError(t, err)
	assert.Equal(t, "[]", content)

	list, err := s.ListWorksheets(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, logins)
}

func TestGuardStoreDeclinedLoginKeepsError(t *testing.T) {
	g := NewGate(nil, func(context.Context) (bool, error) { return false, nil })
	_, err := GuardStore(g, &lockedStore{}).ListWorksheets(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.AuthRequired))
}

func TestGuardEvaluatorRecordsFailureInReplay(t *testing.T) {
	g := NewGate(nil, func(context.Context) (bool, error) { return false, nil })
	ev := GuardEvaluator(g, loader.EvaluatorFunc(func(context.Context, string) ([]session.ResultGroup, error) {
		return nil, apperrors.New(apperrors.AuthRequired, "login required")
	}))

	s := loader.New(session.NewStore(), ev)
	rep, err := s.Replay(context.Background(), []string{"1 + 1"})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	e, ok := s.Store.Entry(0)
	require.True(t, ok)
	assert.Equal(t, "1 + 1", e.Request)
}

func TestGuardEvaluatorLoginOutlastsEvalTimeout(t *testing.T) {
	var loggedIn atomic.Bool
	g := NewGate(nil, func(ctx context.Context) (bool, error) {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return false, ctx.Err()
		}
		loggedIn.Store(true)
		return true, nil
	})
	ev := GuardEvaluator(g, loader.EvaluatorFunc(func(ctx context.Context, _ string) ([]session.ResultGroup, error) {
		if !loggedIn.Load() {
			return nil, apperrors.New(apperrors.AuthRequired, "login required")
		}
		_, bounded := ctx.Deadline()
		assert.True(t, bounded, "each attempt carries the evaluation timeout")
		return []session.ResultGroup{{Result: "2"}}, nil
	}))

	s := loader.New(session.NewStore(), ev)
	s.EvalTimeout = 50 * time.Millisecond
	rep, err := s.Replay(context.Background(), []string{"1+1"})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Failed)
	assert.True(t, loggedIn.Load())

	e, ok := s.Store.Entry(0)
	require.True(t, ok)
	assert.Equal(t, "1+1", e.Request)
	require.Len(t, e.Results, 1)
	assert.Equal(t, "2", e.Results[0].Result)
}

func TestGuardEvaluatorBoundsSlowAttempt(t *testing.T) {
	g := NewGate(nil, nil)
	ev := GuardEvaluator(g, loader.EvaluatorFunc(func(ctx context.Context, _ string) ([]session.ResultGroup, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	s := loader.New(session.NewStore(), ev)
	s.EvalTimeout = 20 * time.Millisecond
	rep, err := s.Replay(context.Background(), []string{"Pause[10]"})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	e, _ := s.Store.Entry(0)
	require.Len(t, e.Results, 1)
	assert.Equal(t, "Evaluation::timeout", e.Results[0].Out[0].Prefix)
}
