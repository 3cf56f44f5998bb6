package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/amptab/internal/editor/memory"
	"github.com/dshills/amptab/internal/engine"
	"github.com/dshills/amptab/internal/markers"
	"github.com/dshills/amptab/internal/prompt"
)

func newPromptCmd(opts *options) *cobra.Command {
	var hint string

	cmd := &cobra.Command{
		Use:   "prompt file",
		Short: "Print the prompt built at the cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.close()

			e, closeSyntax, err := s.engine(engine.Deps{Overlay: memory.NewOverlay()})
			if err != nil {
				return err
			}
			defer closeSyntax()
			defer e.Shutdown()

			ctx, err := e.BuildContext(s.buf, s.cursor, hint)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			writePrompt(w, ctx.Prompt)
			fmt.Fprintln(w)
			labelColor.Fprintf(w, "~%d tokens, region lines %d-%d\n",
				prompt.EstimateTokens(ctx.Prompt), ctx.Region.Start.Line+1, ctx.Region.End.Line+1)
			return nil
		},
	}
	cmd.Flags().StringVar(&hint, "hint", "", "diagnostic message the completion should fix")
	return cmd
}

// writePrompt prints p with the marker tokens highlighted.
func writePrompt(w io.Writer, p string) {
	for _, tok := range markers.Tokenize(p) {
		if tok.Kind == markers.KindText {
			fmt.Fprint(w, tok.Text)
			continue
		}
		markerColor.Fprint(w, tok.Text)
	}
}
