package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/amptab/internal/cache"
	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/editor/memory"
	"github.com/dshills/amptab/internal/engine"
)

// errNoCompletion is returned when the model suggested nothing.
var errNoCompletion = errors.New("no completion")

func newCompleteCmd(opts *options) *cobra.Command {
	var (
		hint   string
		accept bool
	)

	cmd := &cobra.Command{
		Use:   "complete file",
		Short: "Request a completion at the cursor and print it",
		Long: `complete sends the prompt built at the cursor to the configured endpoint and
prints the suggested text. With --accept the whole file is printed with the
suggestion applied; the file on disk is left unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.close()

			q := editor.NewQueue()
			e, closeSyntax, err := s.engine(engine.Deps{
				Overlay: memory.NewOverlay(),
				Loop:    q,
			})
			if err != nil {
				return err
			}
			defer closeSyntax()
			defer e.Shutdown()
			e.SetPreloadEnabled(false)

			if err := e.TriggerAt(s.buf, s.cursor, hint, cache.SourceCursor); err != nil {
				return err
			}

			timeout := s.cfg.API.Timeout()
			if timeout <= 0 {
				timeout = time.Minute
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if !q.RunUntil(ctx, func() bool { return !e.Stats().Foreground }) {
				return fmt.Errorf("waiting for completion: %w", ctx.Err())
			}

			entry, ok := e.Renderer().Current()
			if !ok {
				if err := e.Stats().LastError; err != nil {
					return fmt.Errorf("completion failed: %w", err)
				}
				return errNoCompletion
			}

			w := cmd.OutOrStdout()
			if !accept {
				labelColor.Fprintf(w, "at %d:%d\n", entry.Anchor.Line+1, entry.Anchor.Col+1)
				ghostColor.Fprintln(w, entry.Text)
				return nil
			}
			if err := e.Accept(); err != nil {
				return err
			}
			fmt.Fprint(w, s.buf.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&hint, "hint", "", "diagnostic message the completion should fix")
	cmd.Flags().BoolVar(&accept, "accept", false, "print the file with the completion applied")
	return cmd
}
