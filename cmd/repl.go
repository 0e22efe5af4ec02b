// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mathnb/cli/internal/render"
	"mathnb/cli/internal/session"
)

// replCmd runs the interactive notebook.
var replCmd = &cobra.Command{
	Use:     "repl",
	Aliases: []string{"notebook", "nb"},
	Short:   "Start the interactive notebook",
	Long: `The repl command starts an interactive notebook. Every line is a query; it is
evaluated and shown as a numbered input and output cell. A line ending in a backslash
continues on the next line. Lines starting with ':' are notebook commands; type :help
to list them.

Ctrl-C interrupts a running evaluation or replay. Use :quit or Ctrl-D to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			// The root context ends on the first Ctrl-C; the notebook outlives it
			// and interrupts evaluations on its own.
			return newREPL(a, os.Stdout).Run(context.WithoutCancel(cmd.Context()))
		})
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

const replHelp = `Notebook commands:
  :save [NAME]          save the session as a worksheet
  :open NAME            replace the session with a saved worksheet
  :list                 list saved worksheets
  :share                print a link reproducing the session
  :load LINK            replace the session with the queries of a link
  :gallery [SECTION]    replace the session with the built-in examples
  :code                 show the queries as plain code
  :show                 show the whole session again
  :clear                empty the session
  :edit N QUERY         re-evaluate cell N with a new query
  :help                 show this help
  :quit                 leave the notebook`

type repl struct {
	a     *app
	w     io.Writer
	dirty atomic.Bool
	// name is the worksheet the session was last saved as or opened from.
	name string
	// interrupt creates the context for one evaluation or replay.
	interrupt func(ctx context.Context) (context.Context, context.CancelFunc)
}

func newREPL(a *app, w io.Writer) *repl {
	return &repl{
		a: a,
		w: w,
		interrupt: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		},
	}
}

// Run reads lines until :quit or end of input.
func (r *repl) Run(ctx context.Context) error {
	unsubscribe := r.a.store.Subscribe(func([]session.QueryEntry) { r.dirty.Store(true) })
	defer unsubscribe()

	if r.a.live {
		pterm.Fprintln(r.w, pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("mathnb notebook")+
			"  (type :help for commands, :quit to leave)")
	}

	for {
		line, ok := r.readQuery()
		if !ok {
			if r.dirty.Load() && r.a.store.Len() > 0 {
				pterm.Fprintln(r.w, pterm.Warning.Sprint("Leaving with unsaved changes"))
			}
			return nil
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			quit, err := r.command(ctx, line)
			if err != nil {
				r.showError(err)
			}
			if quit {
				return nil
			}
			continue
		}
		r.evaluate(ctx, line)
	}
}

// readQuery reads one query, joining lines that end in a backslash.
func (r *repl) readQuery() (string, bool) {
	var parts []string
	prompt := render.InLabel(r.a.store.Len())
	for {
		pterm.Fprint(r.w, pterm.NewStyle(pterm.FgLightCyan).Sprint(prompt))
		line, err := r.a.in.ReadString('\n')
		if err != nil && line == "" {
			if len(parts) > 0 {
				return strings.Join(parts, "\n"), true
			}
			pterm.Fprintln(r.w)
			return "", false
		}
		line = strings.TrimRight(line, "\r\n")
		if cont, found := strings.CutSuffix(line, `\`); found && err == nil {
			parts = append(parts, cont)
			prompt = strings.Repeat(" ", len(prompt))
			continue
		}
		parts = append(parts, line)
		return strings.TrimSpace(strings.Join(parts, "\n")), true
	}
}

// evaluate appends one cell for query and prints it.
func (r *repl) evaluate(ctx context.Context, query string) {
	ctx, stop := r.interrupt(ctx)
	defer stop()

	entry, err := r.a.session.Evaluate(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			pterm.Fprintln(r.w, pterm.Warning.Sprint("Interrupted; nothing was added"))
			return
		}
		r.a.log.Debug("query failed", zap.Error(err))
	}
	r.a.store.Append(entry)
	r.a.out.Entry(r.a.store.Len()-1, entry)
}

// command runs a notebook command. It reports whether the notebook should exit.
func (r *repl) command(ctx context.Context, line string) (bool, error) {
	name, arg := parseCommand(line)
	ctx, stop := r.interrupt(ctx)
	defer stop()

	switch name {
	case "quit", "q", "exit":
		return r.confirmDiscard("Leave without saving?"), nil

	case "help", "h", "?":
		pterm.Fprintln(r.w, replHelp)

	case "save", "s":
		target := arg
		if target == "" {
			target = r.name
		}
		if target == "" {
			return false, errors.New("usage: :save NAME")
		}
		saved, err := r.a.saveSession(ctx, target, false)
		if err != nil || !saved {
			return false, err
		}
		r.name = target
		r.dirty.Store(false)
		pterm.Fprintln(r.w, pterm.Success.Sprintf("Saved worksheet %q", target))

	case "open", "o":
		if arg == "" {
			return false, errors.New("usage: :open NAME")
		}
		if !r.confirmDiscard("Discard unsaved changes?") {
			return false, nil
		}
		if err := r.a.openWorksheet(ctx, arg); err != nil {
			return false, err
		}
		r.name = arg
		r.dirty.Store(false)
		r.a.out.Session(r.a.store.Entries())

	case "list", "ls":
		return false, r.a.listWorksheets(ctx)

	case "share":
		if r.a.store.Len() == 0 {
			return false, errors.New("the session is empty")
		}
		pterm.Fprintln(r.w, r.a.shareLink())

	case "load":
		if arg == "" {
			return false, errors.New("usage: :load LINK")
		}
		if !r.confirmDiscard("Discard unsaved changes?") {
			return false, nil
		}
		r.name = ""
		return false, r.ignoreInterrupt(r.a.loadLink(ctx, arg))

	case "gallery", "examples":
		if !r.confirmDiscard("Discard unsaved changes?") {
			return false, nil
		}
		r.name = ""
		return false, r.ignoreInterrupt(r.a.loadGallery(ctx, arg))

	case "code":
		r.a.out.Code(r.a.store.Entries())

	case "show":
		r.a.out.Session(r.a.store.Entries())

	case "clear":
		if !r.confirmDiscard("Discard unsaved changes?") {
			return false, nil
		}
		r.a.store.Clear()
		r.name = ""
		r.dirty.Store(false)

	case "edit", "e":
		n, query, err := parseEdit(arg)
		if err != nil {
			return false, err
		}
		if _, ok := r.a.store.Entry(n - 1); !ok {
			return false, fmt.Errorf("no cell %d (session has %d)", n, r.a.store.Len())
		}
		ictx, stop := r.interrupt(ctx)
		entry, err := r.a.session.Evaluate(ictx, query)
		interrupted := err != nil && ictx.Err() != nil
		stop()
		if interrupted {
			pterm.Fprintln(r.w, pterm.Warning.Sprintf("Interrupted; cell %d unchanged", n))
			return false, nil
		}
		if err := r.a.store.Set(n-1, entry); err != nil {
			return false, err
		}
		r.a.out.Entry(n-1, entry)

	default:
		return false, fmt.Errorf("unknown command :%s (type :help)", name)
	}
	return false, nil
}

// confirmDiscard asks before dropping unsaved cells. Without unsaved changes
// or without a terminal it does not ask.
func (r *repl) confirmDiscard(question string) bool {
	if !r.dirty.Load() || r.a.store.Len() == 0 || !r.a.live {
		return true
	}
	return r.a.prompt.Confirm(question, false)
}

// ignoreInterrupt keeps the notebook running after an interrupted replay.
func (r *repl) ignoreInterrupt(err error) error {
	if errors.Is(err, errInterrupted) {
		return nil
	}
	return err
}

func (r *repl) showError(err error) {
	presentError(r.w, "", err)
}

// parseCommand splits ":name rest" into the lower-cased name and the trimmed rest.
func parseCommand(line string) (name, arg string) {
	line = strings.TrimSpace(strings.TrimPrefix(line, ":"))
	name, arg, _ = strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

// parseEdit parses "N QUERY" with a 1-based cell number.
func parseEdit(arg string) (int, string, error) {
	num, query, _ := strings.Cut(arg, " ")
	n, err := strconv.Atoi(num)
	query = strings.TrimSpace(query)
	if err != nil || n < 1 || query == "" {
		return 0, "", errors.New("usage: :edit N QUERY")
	}
	return n, query, nil
}
