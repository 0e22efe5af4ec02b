// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"mathnb/cli/internal/render"
	"mathnb/cli/internal/worksheet"
)

var (
	openRaw       bool
	saveOverwrite bool
)

func newRenderer() *render.Renderer { return render.New(os.Stdout) }

// openCmd prints a saved worksheet without re-evaluating it.
var openCmd = &cobra.Command{
	Use:   "open NAME",
	Short: "Show a saved worksheet",
	Long: `The open command fetches a saved worksheet and prints its cells exactly as they were
saved; nothing is re-evaluated. With --raw the stored payload is printed instead, which can
be fed back to 'mathnb save'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.openWorksheet(cmd.Context(), args[0]); err != nil {
				return err
			}
			if openRaw {
				content, err := worksheet.EncodeIndent(worksheet.Serialize(a.store.Entries()))
				if err != nil {
					return err
				}
				pterm.Println(string(content))
				return nil
			}
			a.out.Session(a.store.Entries())
			return nil
		})
	},
}

// saveCmd stores a worksheet from a file.
var saveCmd = &cobra.Command{
	Use:   "save NAME FILE",
	Short: "Save a worksheet from a file",
	Long: `The save command stores FILE as worksheet NAME. FILE is either a worksheet payload
(as printed by 'mathnb open --raw'), which is stored unchanged, or plain queries separated
by blank lines, which are evaluated in order first. Use '-' to read from standard input.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, file := args[0], args[1]
		data, err := readInput(file)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			ctx := cmd.Context()
			if doc, err := worksheet.Decode(data); err == nil {
				a.session.RestoreDocument(doc)
			} else {
				queries := splitQueries(string(data))
				if len(queries) == 0 {
					return err
				}
				if err := a.replayOutcome(a.replay(ctx, "Evaluating", queries, true)); err != nil {
					return err
				}
			}
			saved, err := a.saveSession(ctx, name, saveOverwrite)
			if err != nil {
				return err
			}
			if saved {
				pterm.Success.Printfln("Saved worksheet %q (%d cells)", name, a.store.Len())
			}
			return nil
		})
	},
}

// listCmd prints the saved worksheets.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved worksheets",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return a.listWorksheets(cmd.Context())
		})
	},
}

func init() {
	rootCmd.AddCommand(openCmd, saveCmd, listCmd)
	openCmd.Flags().BoolVar(&openRaw, "raw", false, "Print the stored worksheet payload")
	saveCmd.Flags().BoolVar(&saveOverwrite, "overwrite", false, "Replace an existing worksheet without asking")
}

func readInput(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}

// splitQueries splits the plain-code view back into queries: paragraphs
// separated by blank lines.
func splitQueries(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if q := strings.TrimSpace(p); q != "" {
			out = append(out, q)
		}
	}
	return out
}
