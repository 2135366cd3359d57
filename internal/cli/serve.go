package cli

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/habitr/internal/server"
)

func serveCmd(o *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(a *app) error {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}
				if !a.cfg.Log.Development {
					gin.SetMode(gin.ReleaseMode)
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				srv := server.New(a.svc, a.store, a.log)
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					return srv.ListenAndServe(gctx, addr)
				})
				g.Go(func() error {
					<-gctx.Done()
					if ctx.Err() != nil {
						a.log.Info("shutdown signal received")
					}
					return nil
				})
				if err := g.Wait(); err != nil {
					a.log.Error("http server failed", zap.Error(err))
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :5000)")
	return cmd
}
