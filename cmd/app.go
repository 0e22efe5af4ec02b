// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mathnb/cli/internal/auth"
	"mathnb/cli/internal/backend"
	"mathnb/cli/internal/bridge"
	"mathnb/cli/internal/config"
	"mathnb/cli/internal/keychain"
	"mathnb/cli/internal/loader"
	"mathnb/cli/internal/manifest"
	"mathnb/cli/internal/pgstore"
	"mathnb/cli/internal/render"
	"mathnb/cli/internal/session"
	"mathnb/cli/internal/terminal"
	"mathnb/cli/internal/worksheet"
)

// app wires the notebook for one command invocation.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	km       *keychain.Manager
	manifest *manifest.Manifest
	server   *backend.HTTP
	auth     *auth.Service
	gate     *auth.Gate

	evaluator bridge.Evaluator
	store     *session.Store
	session   *loader.Session

	worksheets worksheet.Store
	// progress is the presenter of the running replay, if any.
	progress *render.Progress

	in     *bufio.Reader
	out    *render.Renderer
	prompt *render.Prompter
	live   bool

	closers []func()
}

// newApp connects the session model to the configured evaluator. The
// worksheet store is opened lazily by worksheetStore.
func newApp(ctx context.Context) (*app, error) {
	a := &app{
		cfg:  settings,
		log:  logger,
		in:   bufio.NewReader(os.Stdin),
		out:  render.New(os.Stdout),
		live: terminal.IsInteractive(),
	}
	a.prompt = render.NewPrompter(a.in, os.Stdout)

	km, err := keychain.GetManager()
	if err != nil {
		// Tokens then only last for this process.
		a.log.Warn("keychain unavailable, credentials will not be persisted", zap.Error(err))
		km = keychain.NewManagerWithRing(keyring.NewArrayKeyring(nil))
		keychain.SetManager(km)
	}
	a.km = km

	if a.cfg.Store == config.StorePostgres && strings.TrimSpace(a.cfg.StoreDSN) == "" {
		if dsn, err := km.LoadStoreDSN(); err == nil {
			a.cfg.StoreDSN = dsn
		}
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	a.manifest = manifest.GetEndpoints(ctx, a.cfg.Server, a.log)
	a.server = backend.New(a.cfg.Server, a.manifest.HTTP,
		backend.WithLogger(a.log),
		backend.WithTokenSource(func() string { return a.auth.AccessToken() }),
	)
	a.auth = auth.NewService(a.server, km, a.log)

	var login auth.LoginFunc
	if a.live {
		login = a.loginPrompt
	}
	a.gate = auth.NewGate(a.auth, login)

	ev, err := bridge.New(bridge.Params{
		Transport:  a.cfg.Transport,
		GRPCOrigin: a.cfg.GRPCAddr,
		Manifest:   a.manifest,
		HTTP:       a.server,
		Tokens:     a.auth.AccessToken,
		Logger:     a.log,
	})
	if err != nil {
		return nil, err
	}
	a.evaluator = ev
	a.closers = append(a.closers, func() { _ = ev.Close() })

	a.store = session.NewStore()
	a.session = loader.New(a.store, auth.GuardEvaluator(a.gate, ev))
	a.session.EvalTimeout = a.cfg.EvalTimeout()
	a.session.Logger = a.log
	if a.cfg.ReplayRPS > 0 {
		a.session.Limiter = rate.NewLimiter(rate.Limit(a.cfg.ReplayRPS), 1)
	}
	a.log.Debug("notebook ready",
		zap.String("transport", a.cfg.Transport),
		zap.String("store", a.cfg.Store),
		zap.String("session_id", a.server.SessionID()))
	return a, nil
}

// worksheetStore opens the configured worksheet store on first use.
func (a *app) worksheetStore(ctx context.Context) (worksheet.Store, error) {
	if a.worksheets != nil {
		return a.worksheets, nil
	}
	switch a.cfg.Store {
	case config.StorePostgres:
		pg, err := pgstore.Open(ctx, a.cfg.StoreDSN, a.owner(), a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		a.worksheets = pg
	default:
		a.worksheets = auth.GuardStore(a.gate, a.server)
	}
	return a.worksheets, nil
}

// owner scopes postgres worksheets: the configured owner, then the logged-in
// account, then the OS user.
func (a *app) owner() string {
	if a.cfg.Owner != "" {
		return a.cfg.Owner
	}
	if st, err := auth.LoadState(a.km); err == nil && st.LoggedIn && st.Account != "" {
		return st.Account
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}

// replay evaluates queries in order with live progress. When fresh is set the
// session is cleared first.
func (a *app) replay(ctx context.Context, title string, queries []string, fresh bool) (loader.Report, error) {
	p := render.NewProgress(a.out, title, len(queries), a.live)
	a.session.Hooks = p.Hooks()
	a.progress = p
	defer func() {
		a.session.Hooks = loader.Hooks{}
		a.progress = nil
	}()

	if fresh {
		return a.session.Load(ctx, queries)
	}
	return a.session.Replay(ctx, queries)
}

// loginPrompt is the gate's login step: it asks before starting the device flow.
func (a *app) loginPrompt(ctx context.Context) (bool, error) {
	if a.progress != nil {
		a.progress.Pause()
	}
	if !a.prompt.Confirm("This needs you to be logged in. Log in now?", true) {
		return false, nil
	}
	if _, err := a.deviceLogin(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// withApp runs fn with a wired app and releases it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return fmt.Errorf("starting notebook: %w", err)
	}
	defer a.close()
	return fn(a)
}
