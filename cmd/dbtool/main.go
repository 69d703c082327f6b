package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"tms-load-service/internal/adapters/events"
	"tms-load-service/internal/adapters/export"
	"tms-load-service/internal/adapters/repositories"
	"tms-load-service/internal/api/dto"
	"tms-load-service/internal/config"
	"tms-load-service/internal/domain"
	"tms-load-service/internal/platform/clock"
	"tms-load-service/internal/platform/db"
	"tms-load-service/internal/platform/logging"
	"tms-load-service/internal/ports"
	"tms-load-service/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	config.LoadDotEnv()

	if err := buildCLI().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildCLI() *cobra.Command {
	var cfg config.Config

	root := &cobra.Command{
		Use:          "tms-dbtool",
		Short:        "Schema, seed and maintenance tasks for the load service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logging.Configure(cfg.LogLevel)
			return nil
		},
	}

	root.AddCommand(buildInitSchemaCommand(&cfg))
	root.AddCommand(buildSeedCommand(&cfg))
	root.AddCommand(buildSweepCommand(&cfg))
	root.AddCommand(buildKPICommand(&cfg))
	return root
}

func buildInitSchemaCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create the SQLite tables, and the Postgres loads table when that driver is selected",
		RunE: func(cmd *cobra.Command, args []string) error {
			sqliteDB, err := db.OpenSQLite(cfg.DBPath)
			if err != nil {
				return err
			}
			defer sqliteDB.Close()

			log.Println("Initializing database schema...")
			if err := repositories.InitSchema(sqliteDB); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}

			if cfg.RepositoryDriver == config.DriverPostgres {
				pool, err := db.OpenPostgres(cmd.Context(), cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := repositories.NewPostgresLoadRepository(pool).ApplySchema(cmd.Context()); err != nil {
					return fmt.Errorf("schema initialization failed: %w", err)
				}
			}
			log.Println("Schema ready.")
			return nil
		},
	}
}

func buildSeedCommand(cfg *config.Config) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load equipment and loads from a JSON seed file into SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = cfg.SeedPath
			}

			sqliteDB, err := db.OpenSQLite(cfg.DBPath)
			if err != nil {
				return err
			}
			defer sqliteDB.Close()

			if err := repositories.InitSchema(sqliteDB); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}

			log.Printf("Seeding database from %s...", file)
			if err := repositories.SeedFromJSON(sqliteDB, file); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			log.Println("Seeding complete.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file (defaults to SEED_PATH)")
	return cmd
}

func buildSweepCommand(cfg *config.Config) *cobra.Command {
	var tenants []string

	cmd := &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Run the overdue payment sweep once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(tenants) == 0 {
				tenants = cfg.SweepTenants
			}
			if len(tenants) == 0 {
				return fmt.Errorf("no tenants: pass --tenant or set SWEEP_TENANTS")
			}

			return withStores(cmd.Context(), cfg, func(loads ports.LoadRepository, sqliteDB *sql.DB) error {
				clk := clock.NewSystem()
				lifecycle := services.NewLifecycleService(loads, events.NewSqliteLog(sqliteDB), clk, nil)
				sweeper := services.NewOverdueSweeper(loads, lifecycle, clk, cfg.PaymentTerms(), nil)

				for _, tenant := range tenants {
					res, err := sweeper.Sweep(cmd.Context(), tenant)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: examined=%d marked=%d skipped=%d\n",
						tenant, res.Examined, res.Marked, res.Skipped)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&tenants, "tenant", "t", nil, "tenant to sweep (repeatable; defaults to SWEEP_TENANTS)")
	return cmd
}

func buildKPICommand(cfg *config.Config) *cobra.Command {
	var (
		tenant string
		scope  string
		xlsx   string
	)

	cmd := &cobra.Command{
		Use:   "kpi",
		Short: "Print a tenant's KPI snapshot as JSON, or write it as a workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := domain.ParseScope(scope)
			if err != nil {
				return err
			}

			return withStores(cmd.Context(), cfg, func(loads ports.LoadRepository, _ *sql.DB) error {
				svc := services.NewAnalyticsService(loads, clock.NewSystem(), cfg.Location(), nil)
				snap, err := svc.Snapshot(cmd.Context(), tenant, sc)
				if err != nil {
					return err
				}

				if xlsx != "" {
					f, err := os.Create(xlsx)
					if err != nil {
						return err
					}
					if err := export.WriteKPIWorkbook(f, snap); err != nil {
						f.Close()
						return err
					}
					return f.Close()
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(dto.FromKPISnapshot(snap))
			})
		},
	}
	cmd.Flags().StringVarP(&tenant, "tenant", "t", "", "tenant id")
	cmd.Flags().StringVar(&scope, "scope", "mine", "mine or requests")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "write an xlsx workbook to this path instead of JSON")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

// withStores opens the configured load store plus the local SQLite database.
// The remote driver has no database of its own to maintain.
func withStores(ctx context.Context, cfg *config.Config, fn func(ports.LoadRepository, *sql.DB) error) error {
	sqliteDB, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer sqliteDB.Close()

	switch cfg.RepositoryDriver {
	case config.DriverPostgres:
		pool, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return fn(repositories.NewPostgresLoadRepository(pool), sqliteDB)
	case config.DriverRemote:
		return fmt.Errorf("driver %q is maintained by the backend, not this tool", cfg.RepositoryDriver)
	default:
		return fn(repositories.NewSqliteLoadRepository(sqliteDB), sqliteDB)
	}
}
