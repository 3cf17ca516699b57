package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSearchCmd(env *cliEnv) *cobra.Command {
	var (
		accountID int64
		refresh   bool
	)
	cmd := &cobra.Command{
		Use:     "search <keywords...>",
		Short:   "Find courses by keyword across sub-accounts",
		Example: `  auditor search --account 1 gestión proyectos`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := env.lms(cmd.Context())
			if err != nil {
				return err
			}
			term := strings.Join(args, " ")
			if refresh {
				if err := services.Search.Forget(cmd.Context(), accountID, term); err != nil {
					env.logger.Warn("search cache not cleared", zap.Error(err))
				}
			}
			results, cacheHit, err := services.Search.Search(cmd.Context(), accountID, term)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if env.jsonOutput {
				return writeJSON(out, results)
			}
			fmt.Fprintln(out, renderSearch(term, results, cacheHit))
			return nil
		},
	}
	cmd.Flags().Int64Var(&accountID, "account", 1, "root account whose sub-accounts are searched")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore any cached result")
	return cmd
}
