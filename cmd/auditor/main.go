// Command auditor runs compliance audits and corrections against Canvas courses from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/internal/app"
	"github.com/noah-isme/lms-auditor/pkg/config"
	"github.com/noah-isme/lms-auditor/pkg/logger"
)

// cliEnv carries state shared by every subcommand.
type cliEnv struct {
	cfg      *config.Config
	logger   *zap.Logger
	services *app.Services

	jsonOutput bool
	logLevel   string
}

// loadConfig reads configuration and builds the logger. Safe to call more than once.
func (e *cliEnv) loadConfig() error {
	if e.cfg != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
	}
	logr, err := logger.New(cfg, true)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	e.cfg = cfg
	e.logger = logr
	return nil
}

// lms builds the LMS-backed services on first use.
func (e *cliEnv) lms(ctx context.Context) (*app.Services, error) {
	if e.services != nil {
		return e.services, nil
	}
	if err := e.loadConfig(); err != nil {
		return nil, err
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	services, err := app.New(ctx, e.cfg, e.logger)
	if err != nil {
		return nil, err
	}
	e.services = services
	return services, nil
}

func (e *cliEnv) close() {
	if e.services != nil {
		_ = e.services.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

func newRootCmd(env *cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:   "auditor",
		Short: "Audit and correct Canvas course assignments",
		Long: `Audit Canvas courses against the institutional assignment checklists.

Available subcommands:
  audit   - Print the checklist of every audited assignment of the given courses
  correct - Apply the corrections the failing rules allow, then re-check
  search  - Find courses by keyword under an account's sub-accounts
  token   - Sign an operator token for the HTTP API`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&env.jsonOutput, "json", false, "print results as JSON instead of tables")
	root.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(newAuditCmd(env), newCorrectCmd(env), newSearchCmd(env), newTokenCmd(env))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	env := &cliEnv{}

	err := newRootCmd(env).ExecuteContext(ctx)
	env.close()
	stop()
	if err != nil {
		os.Exit(1)
	}
}
