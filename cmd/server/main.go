package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"blackjack-server/internal/config"
	"blackjack-server/internal/jwt"
	"blackjack-server/internal/mux"
	"blackjack-server/pkg/db"
	"blackjack-server/pkg/ledger"
	"blackjack-server/pkg/room"
	"blackjack-server/pkg/roomlog"

	"github.com/coder/quartz"
	"github.com/gorilla/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const readTimeout = time.Second * 5
const writeTimeout = time.Second * 10
const shutdownTimeout = time.Second * 10

// Version is the server version
var Version = "v0.0.0-dev"

var addr = flag.String("addr", ":5000", "the listen address")

func main() {
	flag.Parse()
	setupLogger()

	// fail fast
	jwt.LoadKeys()

	cfg := config.Instance()
	if cfg.Ledger == config.StorePostgres || cfg.LogStore == config.StorePostgres {
		db.Migrate()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := quartz.NewReal()
	payer := ledger.NewPayer(logrus.StandardLogger(), newLedger(cfg), clock)
	logs := roomlog.NewWriter(logrus.StandardLogger(), newLogStore(ctx, cfg))

	pitBoss := room.NewPitBoss(logrus.StandardLogger(), payer, logs, room.Options{
		Table:       cfg.Table.Options(),
		TurnTimeout: cfg.Table.TurnTimeout,
		Clock:       clock,
	})

	c := cors.New(cors.Options{
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		AllowedMethods: []string{http.MethodGet},
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      loggingHandler(c.Handler(mux.NewMux(Version, pitBoss))),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return payer.Run(ctx)
	})
	g.Go(func() error {
		return logs.Run(ctx)
	})
	g.Go(func() error {
		logrus.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}

	// last chance for payouts that arrived during shutdown
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := payer.Flush(flushCtx); err != nil {
		logrus.WithError(err).WithField("pending", payer.Pending()).Error("exiting with unsettled chip balances")
	}
}

func newLedger(cfg config.Config) ledger.Ledger {
	switch cfg.Ledger {
	case config.StorePostgres:
		return ledger.NewPostgres(db.Instance(), cfg.Table.StartingChips)
	case config.StoreMemory, "":
		return ledger.NewMemory(cfg.Table.StartingChips)
	default:
		logrus.WithField("ledger", cfg.Ledger).Fatal("unknown ledger")
		return nil
	}
}

func newLogStore(ctx context.Context, cfg config.Config) roomlog.Store {
	switch cfg.LogStore {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).WithField("addr", cfg.RedisAddr).Fatal("could not connect to redis")
		}

		return roomlog.NewRedis(client, cfg.Table.LogLimit)
	case config.StorePostgres:
		return roomlog.NewPostgres(db.Instance())
	case config.StoreMemory, "":
		return roomlog.NewMemory(cfg.Table.LogLimit)
	default:
		logrus.WithField("logStore", cfg.LogStore).Fatal("unknown log store")
		return nil
	}
}

func loggingHandler(next http.Handler) http.Handler {
	if config.Instance().Log.DisableAccessLogs {
		return next
	}

	return handlers.CombinedLoggingHandler(os.Stdout, next)
}

func setupLogger() {
	if lvl := config.Instance().Log.Level; lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			logrus.WithError(err).Fatal("could not parse level")
		}

		logrus.SetLevel(level)
	}

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
