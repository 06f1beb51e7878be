package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/shopmate-ai/shopmate/pkg/cli/config"
	httpctrl "github.com/shopmate-ai/shopmate/pkg/controller/http"
	"github.com/shopmate-ai/shopmate/pkg/service/agent"
	"github.com/shopmate-ai/shopmate/pkg/service/worker"
	"github.com/shopmate-ai/shopmate/pkg/usecase"
	"github.com/shopmate-ai/shopmate/pkg/utils/async"
	"github.com/shopmate-ai/shopmate/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func cmdServe() *cli.Command {
	var addr string
	var appCfg config.App
	var repoCfg config.Repository
	var llmCfg config.LLM
	var embCfg config.Embedding
	var toolsCfg config.Tools

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("SHOPMATE_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, embCfg.Flags()...)
	flags = append(flags, toolsCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load app configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			gemini, err := llmCfg.GeminiClient(ctx)
			if err != nil {
				return err
			}

			remote, err := toolsCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to connect remote tools")
			}
			defer remote.Close()

			runner, err := llmCfg.Configure(gemini,
				agent.WithRemoteTools(remote),
				agent.WithMaxIterations(cfg.Agent.MaxIterations),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to configure agent runtime")
			}
			logging.Default().Info("Agent runtime configured", "llm", llmCfg, "allowed_tools", runner.AllowedTools())

			var ucOpts []usecase.Option
			embedder, err := embCfg.Configure(ctx, gemini, repo.EmbeddingCache())
			if err != nil {
				return goerr.Wrap(err, "failed to configure embeddings")
			}
			if embedder != nil {
				defer embedder.Close()
				ucOpts = append(ucOpts, usecase.WithEmbedder(embedder))
			}

			uc := usecase.New(repo, runner, cfg, ucOpts...)

			httpHandler, err := httpctrl.New(uc.Turn, httpctrl.FromUseCases(uc)...)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sweeper := worker.NewThreadSweeper(uc.Threads, cfg.Thread.SweepInterval, cfg.Thread.IdleTimeout)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, egCtx := errgroup.WithContext(ctx)
			sweeper.Start(egCtx)

			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})

			eg.Go(func() error {
				<-egCtx.Done()
				logging.Default().Info("Shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				sweeper.Stop()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// let extraction and title passes of finished turns complete
				if err := async.Wait(shutdownCtx); err != nil {
					logging.Default().Warn("background work abandoned", "error", err.Error())
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			})

			return eg.Wait()
		},
	}
}
