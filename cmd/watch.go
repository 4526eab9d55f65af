package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/daemon"
	"github.com/Stebibastian/kas-filesync/internal/db"
	"github.com/Stebibastian/kas-filesync/internal/engine"
	"github.com/Stebibastian/kas-filesync/internal/logger"
	"github.com/Stebibastian/kas-filesync/internal/repository"
	"github.com/Stebibastian/kas-filesync/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the sync daemon for all registered pairs",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	bases := store.NewDBBaseStore(db.DB)

	conflicts, err := store.NewFileConflictStore(cfg.ConflictsPath)
	if err != nil {
		// Degrades to "no active conflicts"; the next sync decides purely
		// from current divergence.
		logger.Log.Warn("conflict state unreadable, starting without it",
			zap.Error(err))
	}

	histRepo := repository.NewHistoryRepository(db.DB)

	eng := engine.New(cfg, bases, conflicts, histRepo)

	srv := daemon.NewServer(eng, conflicts, histRepo, cfg.DaemonPort)
	srv.Start()

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() {
		runErr <- eng.Run(ctx)
	}()

	logger.Log.Info("filesync daemon started",
		zap.Int("port", cfg.DaemonPort),
		zap.String("registry", cfg.RegistryPath))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	case err := <-runErr:
		cancel()
		return err
	}

	cancel()
	<-runErr

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
