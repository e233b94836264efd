package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdhe/aishe-client/pkg/orchestrator"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or manage the answer cache",
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Remove every cached answer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := app.orchestrator.FlushCache(commandContext(cmd))
		if errors.Is(err, orchestrator.ErrNoCache) {
			return fmt.Errorf("no cache backend configured; set --cache or AISHE_CACHE_BACKEND")
		}
		if err != nil {
			return err
		}
		cmd.Printf("Flushed %s cache.\n", app.cfg.Cache.Backend)
		return nil
	},
}

var cacheHasCmd = &cobra.Command{
	Use:   "has [question]",
	Short: "Report whether an answer is cached for a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := app.orchestrator.Cached(commandContext(cmd), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if ok {
			cmd.Println("cached")
		} else {
			cmd.Println("not cached")
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheFlushCmd)
	cacheCmd.AddCommand(cacheHasCmd)
	rootCmd.AddCommand(cacheCmd)
}
