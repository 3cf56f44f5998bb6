package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/amptab/internal/editor"
	"github.com/dshills/amptab/internal/editor/memory"
	"github.com/dshills/amptab/internal/engine"
	"github.com/dshills/amptab/internal/syntax/treesitter"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgYellow)
	ghostColor  = color.New(color.Faint)
	markerColor = color.New(color.FgMagenta)
)

func newRegionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "region file",
		Short: "Show the editable region selected at the cursor",
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

			ctx, err := e.BuildContext(s.buf, s.cursor, "")
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			r := ctx.Region
			headerColor.Fprintf(w, "%s %s\n", args[0], ctx.Cursor)
			labelColor.Fprint(w, "strategy: ")
			fmt.Fprintln(w, r.Strategy)
			if r.NodeKind != "" {
				labelColor.Fprint(w, "node:     ")
				fmt.Fprintln(w, r.NodeKind)
			}
			labelColor.Fprint(w, "lines:    ")
			fmt.Fprintf(w, "%d-%d (%d)\n", r.Start.Line+1, r.End.Line+1, r.LineCount())
			if r.ClassContext != "" {
				labelColor.Fprintln(w, "class context:")
				ghostColor.Fprintln(w, r.ClassContext)
			}
			labelColor.Fprintln(w, "region:")
			fmt.Fprint(w, ctx.CodeToRewrite)
			return nil
		},
	}
}

// engine builds an engine over the session buffer. Without a loop in deps
// callbacks queue up until the caller drains them. The returned func
// releases the syntax provider.
func (s *session) engine(deps engine.Deps) (*engine.Engine, func(), error) {
	if deps.Loop == nil {
		deps.Loop = editor.NewQueue()
	}
	closeSyntax := func() {}
	if s.cfg.Region.UseTreesitter && treesitter.Supported(s.buf.Language()) {
		p := treesitter.New(treesitter.WithLogger(s.log.Named("syntax")))
		deps.Syntax = p
		closeSyntax = p.Close
	}
	deps.Logger = s.log

	e, err := engine.New(s.cfg, deps)
	if err != nil {
		closeSyntax()
		return nil, nil, err
	}
	return e, closeSyntax, nil
}
