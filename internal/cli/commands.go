// Package cli implements the ledgerctl command line tool.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/api/request"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/backup"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/database"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/logging"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/marketdata"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/version"
)

// app holds what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "ledgerctl - stock holdings ledger maintenance",
		Long:          `ledgerctl inspects and maintains the holdings ledger used by the server: schema migrations, position reports and encrypted backups.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if path, _ := cmd.Flags().GetString("db"); path != "" {
				cfg.Database.Path = path
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Log.Level = "debug"
			}

			a.cfg = cfg
			a.log = logging.NewWithWriter(logging.Config{Level: cfg.Log.Level, Pretty: true}, os.Stderr)
			logging.SetGlobalLogger(a.log)
			return nil
		},
	}

	// Add subcommands
	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newPositionsCmd(a))
	rootCmd.AddCommand(newSymbolsCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newImportCmd(a))
	rootCmd.AddCommand(newKeygenCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Global flags
	rootCmd.PersistentFlags().String("db", "", "Database path (overrides DB_PATH)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

// openDB opens and migrates the configured database.
func (a *app) openDB() (*sql.DB, error) {
	db, err := database.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// newMigrateCmd creates the migrate command
func newMigrateCmd(a *app) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema management",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.Open(a.cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			v, err := database.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Schema at version %d", v)))
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := database.Open(a.cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			return database.MigrationStatus(db)
		},
	})

	return migrateCmd
}

// newPositionsCmd creates the positions command
func newPositionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Print the portfolio summary",
		Long: `Print every instrument with its position, valuation and plan progress.
Example: ledgerctl positions --view=holding --sort=weight`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			strategy, _ := cmd.Flags().GetString("strategy")
			view, _ := cmd.Flags().GetString("view")
			status, _ := cmd.Flags().GetString("status")
			sortBy, _ := cmd.Flags().GetString("sort")
			order, _ := cmd.Flags().GetString("order")

			q, err := request.ParseSummaryQuery(strategy, view, status, sortBy, order)
			if err != nil {
				return err
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			provider, err := marketdata.NewProvider(a.cfg.MarketData)
			if err != nil {
				return err
			}
			prices := marketdata.NewCacheFromConfig(provider, a.cfg.MarketData, a.log)
			svc := service.NewPortfolioService(repository.NewInstrumentRepository(db), prices, a.cfg.Ledger.Timeout)

			summary, err := svc.GetSummary(cmd.Context(), q.Filter, q.Order)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), renderSummary(summary))
			return nil
		},
	}

	cmd.Flags().String("strategy", "", "Only instruments with this strategy tag")
	cmd.Flags().String("view", "all", "all, holding or watching")
	cmd.Flags().String("status", "", "watch, planned, holding or closed")
	cmd.Flags().String("sort", "", "invested, name, progress or weight")
	cmd.Flags().String("order", "", "asc or desc")

	return cmd
}

// newSymbolsCmd creates the symbols command
func newSymbolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List every tracked symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			symbols, err := repository.NewInstrumentRepository(db).Symbols(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), renderSymbols(symbols))
			return nil
		},
	}
}

// newExportCmd creates the export command
func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write an encrypted ledger backup to FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewLedgerService(repository.NewInstrumentRepository(db), a.cfg.Backup.Key, a.log)
			token, err := svc.Export(cmd.Context())
			if err != nil {
				return err
			}

			if err := os.WriteFile(args[0], token, 0o600); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Backup written to "+args[0]))
			return nil
		},
	}
}

// newImportCmd creates the import command
func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the ledger with an encrypted backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewLedgerService(repository.NewInstrumentRepository(db), a.cfg.Backup.Key, a.log)
			result, err := svc.Import(cmd.Context(), token)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderImportResult(result))
			return nil
		},
	}
}

// newKeygenCmd creates the keygen command
func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a BACKUP_KEY",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := backup.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ledgerctl "+version.Version)
		},
	}
}

// Execute runs the root command and reports errors on stderr.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		return 1
	}
	return 0
}
