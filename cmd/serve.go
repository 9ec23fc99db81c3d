package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/softex1/tably-paket1/broker"
	"github.com/softex1/tably-paket1/config"
	"github.com/softex1/tably-paket1/hub"
	"github.com/softex1/tably-paket1/router"
	"github.com/softex1/tably-paket1/services"
	"github.com/softex1/tably-paket1/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, live feed and session sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if cfg.GinMode == gin.ReleaseMode || cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		feed := hub.NewHub(cfg.FeedBuffer)
		feed.OnDrop(services.FeedDropped.Inc)
		defer feed.Close()

		opts := services.Options{
			SessionTTL:     cfg.SessionTTL,
			CallCooldown:   cfg.CallCooldown,
			CallStaleAfter: cfg.CallStaleAfter,
			PublicURL:      cfg.PublicURL,
			JWTSecret:      cfg.JWTSecret,
			JWTTTL:         cfg.JWTTTL,
			Publisher:      feed,
			Locker:         services.NewKeyedMutex(),
			Attempts:       services.NewGormAttemptStore(db, cfg.LoginMaxAttempts, cfg.LoginLockout),
		}

		if rdb := config.NewRedisClient(cfg); rdb != nil {
			defer rdb.Close()
			opts.Locker = services.NewRedisLocker(rdb)
			opts.Attempts = services.NewRedisAttemptStore(rdb, cfg.LoginMaxAttempts, cfg.LoginLockout)
		}

		g, gctx := errgroup.WithContext(ctx)

		// with a broker, events reach the local hub only through the relay
		if cfg.AMQPURL != "" {
			pub := broker.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, 0)
			relay := broker.NewRelay(cfg.AMQPURL, cfg.AMQPExchange, feed)
			opts.Publisher = pub
			g.Go(func() error { return pub.Run(gctx) })
			g.Go(func() error { return relay.Run(gctx) })
		}

		svc := services.New(db, opts)

		sweeper := services.NewSessionSweeper(svc.Sessions, cfg.SweepInterval)
		if err := sweeper.Start(); err != nil {
			return err
		}
		defer sweeper.Stop()

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router.SetupRouter(cfg, svc, feed),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			utils.InfoLogger.Infof("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "http server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			utils.InfoLogger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
