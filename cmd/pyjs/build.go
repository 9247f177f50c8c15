package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chazu/pyjs/compiler"
	"github.com/chazu/pyjs/manifest"
)

var (
	flagOut     string
	flagRoots   []string
	flagNoCache bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the project's roots into one JavaScript bundle",
	Example: `  pyjs build                      # bundle every root to stdout
  pyjs build -o dist/app.js       # write the bundle to a file
  pyjs build --root views.render  # bundle one function and what it reaches`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, globals, err := loadProject(flagDir)
		if err != nil {
			return err
		}
		p, err := manifest.NewResolver(m, nil, globals).Resolve()
		if err != nil {
			return reportError(err, nil)
		}
		roots, err := selectRoots(p, flagRoots)
		if err != nil {
			return err
		}

		sess := newSession(m, p)
		build := func() (*compiler.Bundle, error) { return sess.Bundle(roots...) }

		st, err := openStore(m, flagNoCache)
		if err != nil {
			return err
		}
		var b *compiler.Bundle
		var hit bool
		if st != nil {
			defer st.Close()
			key, err := projectKey(m, globals, p, roots)
			if err != nil {
				return err
			}
			b, hit, err = st.Bundle(cmd.Context(), key, build)
			if err != nil {
				return reportError(err, sources(m, p))
			}
		} else if b, err = build(); err != nil {
			return reportError(err, sources(m, p))
		}

		if flagOut == "" {
			fmt.Fprint(cmd.OutOrStdout(), b.Code)
		} else {
			if err := os.MkdirAll(filepath.Dir(flagOut), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(flagOut, []byte(b.Code), 0644); err != nil {
				return err
			}
		}

		renderSummary(cmd.ErrOrStderr(), summary{
			Project: m.Project.Name,
			Roots:   roots,
			Bundle:  b,
			Cached:  hit,
			Output:  flagOut,
		})
		return nil
	},
}

// errDiagnostics is returned once diagnostics have been rendered.
var errDiagnostics = errors.New("compilation failed")

// reportError renders compile diagnostics and passes other errors on.
func reportError(err error, srcs map[string]string) error {
	var ce *compiler.Error
	if !errors.As(err, &ce) {
		return err
	}
	renderDiagnostics(os.Stderr, []*compiler.Error{ce}, srcs)
	return errDiagnostics
}

func init() {
	buildCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the bundle to this file instead of stdout")
	buildCmd.Flags().StringArrayVar(&flagRoots, "root", nil, "bundle only this function (repeatable; def or module.def)")
	buildCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "bypass the bundle cache")
}
