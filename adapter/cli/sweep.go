package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/frontdeskhq/frontdesk/internal/app"
	"github.com/frontdeskhq/frontdesk/internal/reception/application/commands"
	"github.com/frontdeskhq/frontdesk/pkg/config"
)

var (
	sweepTenant       string
	sweepDryRun       bool
	sweepMaxRows      int
	sweepLimitTenants int
	sweepLocalDB      string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one SLA escalation sweep",
	Long: `Runs one sweep over overdue reschedule requests and prints the
result as JSON. Without --tenant, tenants are discovered automatically.
With --local, a SQLite database is used instead of PostgreSQL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		var container *app.Container
		if sweepLocalDB != "" {
			container, err = app.NewLocalContainer(ctx, sweepLocalDB, cfg, logger)
		} else {
			container, err = app.NewContainer(ctx, cfg, logger)
		}
		if err != nil {
			return err
		}
		defer container.Close()

		runCmd := commands.RunSweepCommand{
			DryRun:       sweepDryRun,
			MaxRows:      sweepMaxRows,
			LimitTenants: sweepLimitTenants,
		}
		if sweepTenant != "" {
			tenantID, err := uuid.Parse(sweepTenant)
			if err != nil {
				return fmt.Errorf("invalid tenant ID: %w", err)
			}
			runCmd.TenantID = &tenantID
		}

		result, err := container.RunSweep.Handle(ctx, runCmd)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepTenant, "tenant", "", "sweep a single tenant by ID")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "report what would change without writing")
	sweepCmd.Flags().IntVar(&sweepMaxRows, "max-rows", 0, "rows per tenant (clamped to 1-500, unset uses SWEEP_MAX_ROWS)")
	sweepCmd.Flags().IntVar(&sweepLimitTenants, "limit-tenants", 0, "cap on discovered tenants (clamped to 1-200, unset uses SWEEP_TENANT_LIMIT)")
	sweepCmd.Flags().StringVar(&sweepLocalDB, "local", "", "path to a local SQLite database")
	rootCmd.AddCommand(sweepCmd)
}
