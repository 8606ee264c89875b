package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayushmankoley/GrowMint/internal/api"
	"github.com/ayushmankoley/GrowMint/internal/intake"
	"github.com/ayushmankoley/GrowMint/internal/logging"
	"github.com/ayushmankoley/GrowMint/internal/prompt"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveLogJSON bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for projects, context, personas, conversations and tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			c.ListenAddr = serveAddr
		}
		log := logger
		if serveLogJSON {
			log = logging.JSON(os.Stdout, c.LogLevel)
		}

		repo, err := openStore()
		if err != nil {
			return err
		}
		defer func() {
			if err := repo.Close(); err != nil {
				log.Error("close store", "err", err)
			}
		}()
		if err := repo.Ping(cmd.Context()); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		gen, err := newGenerator(ctx)
		if err != nil {
			return err
		}
		h := api.NewHandler(repo, prompt.NewAssembler(), gen, intake.New(c.UploadsDir, intake.WithLogger(log)), api.Options{
			GroundingBudget:  c.GroundingTokenBudget,
			PersistArtifacts: c.PersistArtifacts,
			Logger:           log,
		})

		// A reply can take a primary and a fallback attempt.
		attempt := time.Duration(c.AttemptTimeoutSec) * time.Second
		srv := &http.Server{
			Addr:              c.ListenAddr,
			Handler:           h.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      2*attempt + 30*time.Second,
			IdleTimeout:       120 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			log.Info("server listening", "addr", srv.Addr, "provider", c.Provider)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("forced shutdown", "err", err)
			return err
		}
		log.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().BoolVar(&serveLogJSON, "log-json", false, "log as JSON to stdout")
}
