package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/waxcrate/waxcrate/internal/api"
	"github.com/waxcrate/waxcrate/internal/config"
	"github.com/waxcrate/waxcrate/internal/metadata"
	"github.com/waxcrate/waxcrate/internal/sec"
	"github.com/waxcrate/waxcrate/internal/server"
)

func serveCommand() *cobra.Command {
	var devMode bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the catalog HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if devMode {
				cfg.DevMode = true
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			secret, generated, err := cfg.EnsureSessionSecret()
			if err != nil {
				return err
			}
			if generated {
				logger.WarnContext(cmd.Context(),
					"no session secret configured, sessions will not survive a restart")
			}

			if cfg.DevMode {
				if err := seedDemoData(cmd.Context(), logger, store); err != nil {
					return err
				}
			}

			authn := sec.NewAuthenticator(store, logger)
			source := metadata.Default(cfg.DiscogsToken, logger)
			srv := api.New(cfg, logger, store, source, authn, secret)

			grp, ctx := errgroup.WithContext(cmd.Context())
			serveAPI(ctx, grp, cfg, logger, srv)
			return grp.Wait()
		},
	}
	cmd.Flags().BoolVar(&devMode, "dev", false, "enable dev mode: request logging and demo data")
	return cmd
}

func serveAPI(
	ctx context.Context,
	grp *errgroup.Group,
	cfg *config.Config,
	logger *slog.Logger,
	srv *echo.Echo,
) {
	listener, err := server.Listen(ctx, cfg.ListenAddr)
	if err != nil {
		grp.Go(func() error { return err })
		return
	}

	logger.InfoContext(ctx,
		"starting API server...",
		slog.String("address", cfg.ListenAddr),
	)
	server.Serve(ctx, grp, srv.Server, listener, server.ShutdownTimeout)
}
