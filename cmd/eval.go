// Copyright (c) 2025 Mathnb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"mathnb/cli/internal/gallery"
	"mathnb/cli/internal/link"
)

var (
	evalCode    bool
	evalShare   bool
	galleryList bool
)

// evalCmd evaluates queries one after another in a fresh session.
var evalCmd = &cobra.Command{
	Use:   "eval QUERY...",
	Short: "Evaluate queries in order and print the session",
	Long: `The eval command evaluates every query in a fresh session, strictly one at a time and
in the given order, and prints each cell as soon as it is evaluated. A failing query is
shown as an error message in its cell and evaluation continues with the next one.`,
	Example: `  mathnb eval 'N[Pi, 20]' 'Integrate[x^2, x]'
  mathnb eval --share 'Limit[Sin[x]/x, x -> 0]'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			rep, err := a.replay(cmd.Context(), "Evaluating", args, true)
			if err := a.replayOutcome(rep, err); err != nil {
				return err
			}
			if evalCode {
				a.out.Code(a.store.Entries())
			}
			if evalShare {
				pterm.Println(a.shareLink())
			}
			if rep.Failed > 0 {
				return fmt.Errorf("%d of %d queries failed", rep.Failed, rep.Requested)
			}
			return nil
		})
	},
}

// shareCmd prints a share link without evaluating anything.
var shareCmd = &cobra.Command{
	Use:   "share QUERY...",
	Short: "Print a share link for queries",
	Long: `The share command prints a link that reproduces a session with the given queries.
Opening the link in the notebook, or passing it to 'mathnb load', evaluates the queries
in order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.Println(link.ShareURL(shareBase(settings.Server), args))
		return nil
	},
}

// loadCmd replays a share link.
var loadCmd = &cobra.Command{
	Use:   "load LINK",
	Short: "Evaluate the queries of a share link",
	Long: `The load command decodes a share link (a full URL or just its '#queries=...' fragment)
and evaluates its queries in order, printing each cell as it completes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return a.loadLink(cmd.Context(), args[0])
		})
	},
}

// galleryCmd replays the built-in examples.
var galleryCmd = &cobra.Command{
	Use:   "gallery [SECTION]",
	Short: "Evaluate the built-in example queries",
	Long: `The gallery command evaluates the built-in examples in order. A section name limits
the replay to that section; --list prints the sections and their queries instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if galleryList {
			sections, err := gallery.Sections()
			if err != nil {
				return err
			}
			newRenderer().Gallery(sections)
			return nil
		}
		section := ""
		if len(args) == 1 {
			section = args[0]
		}
		return withApp(cmd.Context(), func(a *app) error {
			return a.loadGallery(cmd.Context(), section)
		})
	},
}

func init() {
	rootCmd.AddCommand(evalCmd, shareCmd, loadCmd, galleryCmd)
	evalCmd.Flags().BoolVar(&evalCode, "code", false, "Also print the queries as plain code")
	evalCmd.Flags().BoolVar(&evalShare, "share", false, "Also print a share link for the session")
	galleryCmd.Flags().BoolVarP(&galleryList, "list", "l", false, "List sections without evaluating")
}
