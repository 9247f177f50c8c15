// pyjs CLI - transpiles restricted Python functions to JavaScript
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/pyjs/manifest"

	_ "github.com/tliron/commonlog/simple"
)

const appName = "pyjs"

var (
	flagDir       string
	flagVerbosity int
	flagLog       string
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Transpile restricted Python functions to JavaScript",
	Long: appName + " compiles Python functions marked as roots, with every function and\n" +
		"constant they reach, into one self-contained JavaScript bundle.\n\n" +
		"The project is configured by the nearest " + manifest.FileName + "; without one, every\n" +
		"top-level def under the working directory is a root.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commonlog.Initialize(flagVerbosity, flagLog)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd, checkCmd, lspCmd, serveCmd, cacheCmd)

	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "C", ".",
		"project directory (searched upward for "+manifest.FileName+")")
	rootCmd.PersistentFlags().CountVarP(&flagVerbosity, "verbose", "v",
		"increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&flagLog, "log", "",
		"log to this file instead of stderr")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}

// loadProject returns the manifest governing dir, or the defaults when
// there is none, along with its globals overlay.
func loadProject(dir string) (*manifest.Manifest, *manifest.Globals, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		if m, err = manifest.Default(dir); err != nil {
			return nil, nil, err
		}
	}
	var globals *manifest.Globals
	if path := m.GlobalsPath(); path != "" {
		if globals, err = manifest.LoadGlobals(path); err != nil {
			return nil, nil, err
		}
	}
	return m, globals, nil
}
