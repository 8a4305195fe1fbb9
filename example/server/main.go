package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "github.com/bhoriuchi/graphql-subscriptions-transport"
	"github.com/bhoriuchi/graphql-subscriptions-transport/logger"
	"github.com/bhoriuchi/graphql-subscriptions-transport/options"
	"github.com/bhoriuchi/graphql-subscriptions-transport/pubsub"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	configPath string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "Run the notes GraphQL server",
	Long: `Run a GraphQL server with a notes query, an addNote mutation and a
noteAdded subscription served over the graphql-ws websocket protocol.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.Addr = listenAddr
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	rootCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address, overrides the config")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newZapLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func newPubSub(cfg Config) pubsub.PubSub {
	if cfg.RedisAddr == "" {
		return pubsub.NewMemory()
	}

	return pubsub.NewRedis(pubsub.RedisConfig{
		Client: redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		}),
	})
}

func run(ctx context.Context, cfg Config) error {
	zl, err := newZapLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer zl.Sync()

	logFunc := logger.NewZapLogFunc(zl)
	l := logger.NewLogWrapper(logFunc, nil)

	ps := newPubSub(cfg)
	defer ps.Close()

	l.Infof("Building schema...")
	schema, err := buildSchema(ps, l)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	opts := []options.Option{
		options.WithLogFunc(logFunc),
		options.WithKeepAlive(cfg.KeepAlive),
	}
	if cfg.Pretty {
		opts = append(opts, options.WithPretty())
	}
	if cfg.JWTSecret != "" {
		opts = append(opts, options.WithOnConnect(newJWTOnConnect([]byte(cfg.JWTSecret))))
	}

	srv, err := server.New(*schema, opts...)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, srv)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.WithField("addr", cfg.Addr).Infof("Listening on %s%s", cfg.Addr, cfg.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
