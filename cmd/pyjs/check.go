package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/pyjs/compiler"
	"github.com/chazu/pyjs/manifest"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compile every root on its own and report all diagnostics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, globals, err := loadProject(flagDir)
		if err != nil {
			return err
		}
		p, err := manifest.NewResolver(m, nil, globals).Resolve()
		if err != nil {
			return reportError(err, nil)
		}

		diags := check(newSession(m, p), p.Roots())
		if len(diags) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), styleOK.Render(fmt.Sprintf("%d root(s) compile cleanly", len(p.Roots()))))
			return nil
		}
		renderDiagnostics(cmd.ErrOrStderr(), diags, sources(m, p))
		return fmt.Errorf("%d diagnostic(s)", len(diags))
	},
}

// check bundles each root separately so one failure does not hide the
// next, and returns the distinct diagnostics in root order.
func check(sess *compiler.Session, roots []*compiler.Function) []*compiler.Error {
	seen := make(map[string]bool)
	var diags []*compiler.Error
	for _, root := range roots {
		_, err := sess.Bundle(root)
		if err == nil {
			continue
		}
		var ce *compiler.Error
		if !errors.As(err, &ce) {
			ce = &compiler.Error{Code: compiler.SourceUnavailable, Pos: compiler.Pos{File: root.File, Line: root.Line}, Msg: err.Error(), Func: root.Name}
		}
		if key := ce.Error(); !seen[key] {
			seen[key] = true
			diags = append(diags, ce)
		}
	}
	return diags
}
