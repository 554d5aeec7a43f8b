package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alugserv/internal/config"
	"alugserv/internal/export"
	"alugserv/internal/http/handlers"
	applog "alugserv/internal/log"
	"alugserv/internal/repos"
	"alugserv/internal/services"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "alugserv",
	Short:         "AlugServ equipment rental catalog API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, cfg config.Config, db *sqlx.DB) error {
			if err := repos.Migrate(ctx, db); err != nil {
				return err
			}
			applog.L().Info("migrate.done", zap.String("driver", cfg.DBDriver))
			return nil
		})
	},
}

var adminFlags struct {
	username string
	email    string
	password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the admin account, or reset its password",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, cfg config.Config, db *sqlx.DB) error {
			users := services.NewUserService(repos.NewUserRepo(db), services.NewActivityService(repos.NewActivityRepo(db)))
			id, created, err := users.EnsureAdmin(ctx, adminFlags.username, adminFlags.email, adminFlags.password)
			if err != nil {
				return err
			}
			verb := "reset"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q %s (id %d)\n", adminFlags.username, verb, id)
			return nil
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync-categories",
	Short: "Reassign equipments to categories by keyword",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, cfg config.Config, db *sqlx.DB) error {
			activity := services.NewActivityService(repos.NewActivityRepo(db))
			sync := services.NewCategorySync(repos.NewEquipmentRepo(db), repos.NewCategoryRepo(db), activity)
			rep, err := sync.Run(ctx, services.Actor{IP: "cli", UserAgent: "alugserv sync-categories"})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		})
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export-catalog",
	Short: "Write every equipment to an xlsx spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, cfg config.Config, db *sqlx.DB) error {
			items, err := repos.NewEquipmentRepo(db).All(ctx, repos.EquipmentFilter{})
			if err != nil {
				return err
			}
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			if err := export.WriteCatalog(f, items); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			applog.L().Info("export.done", zap.String("file", exportOut), zap.Int("equipments", len(items)))
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml, json or toml)")

	createAdminCmd.Flags().StringVar(&adminFlags.username, "username", "admin", "admin username")
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "catalog.xlsx", "output file")

	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd, syncCmd, exportCmd)
}

// withEnv loads config, installs the logger and opens the database for fn.
func withEnv(fn func(ctx context.Context, cfg config.Config, db *sqlx.DB) error) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger, err := applog.New(applog.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	restore := applog.SetLogger(logger)
	defer func() {
		_ = logger.Sync()
		restore()
	}()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, cfg, db)
}

func runServe(cmd *cobra.Command, args []string) error {
	return withEnv(func(ctx context.Context, cfg config.Config, db *sqlx.DB) error {
		app := handlers.NewApp(cfg, handlers.NewDeps(db, cfg))

		errc := make(chan error, 1)
		go func() { errc <- handlers.Listen(app, cfg.Port) }()
		applog.L().Info("server.start", zap.Any("config", cfg.Fields()))

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		applog.L().Info("server.stop")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "alugserv:", err)
		os.Exit(1)
	}
}
