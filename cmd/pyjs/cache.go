package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/pyjs/store"
)

var flagKeep int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the bundle cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number and size of cached bundles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openProjectStore()
		if err != nil {
			return err
		}
		defer st.Close()
		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d bundle(s), %d bytes\n", styleKey.Render("cache"), stats.Records, stats.Bytes)
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recently used bundles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagKeep < 0 {
			return fmt.Errorf("--keep must not be negative")
		}
		st, err := openProjectStore()
		if err != nil {
			return err
		}
		defer st.Close()
		n, err := st.Prune(cmd.Context(), flagKeep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d bundle(s)\n", n)
		return nil
	},
}

func openProjectStore() (*store.Store, error) {
	m, _, err := loadProject(flagDir)
	if err != nil {
		return nil, err
	}
	st, err := openStore(m, false)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New("the bundle cache is disabled for this project")
	}
	return st, nil
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd)
	cachePruneCmd.Flags().IntVar(&flagKeep, "keep", 100, "number of bundles to keep")
}
