package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"insproduce-backend/internal/config"
	"insproduce-backend/internal/database"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/storage"
	"insproduce-backend/internal/supabase"
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "insproduce",
	Short: "Quality-control inspection backend for fruit packing plants",
	Long: `insproduce serves the inspection API: metric templates per commodity,
inspection capture with photos, admin edits and PDF report generation.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log, err = logger.New(cfg.Environment)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if cfg.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), true)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase connects and, when migrate is set, applies pending migrations.
func openDatabase(ctx context.Context, migrate bool) (*database.DB, error) {
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := database.NewMigrator(db.SQL(), log).Run(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		log.Info("migrations completed")
	}
	return db, nil
}

func openStore() (storage.Store, error) {
	switch cfg.StorageBackend {
	case "supabase":
		return supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
	default:
		return storage.NewLocalStore(cfg.UploadsDir, cfg.ReportsDir)
	}
}
