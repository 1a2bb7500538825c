package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlindgren/flowcanvas/internal/server"
	"github.com/mlindgren/flowcanvas/pkg/cache"
	"github.com/mlindgren/flowcanvas/pkg/pipeline"
	"github.com/mlindgren/flowcanvas/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		mongoURI  string
		mongoDB   string
		redisAddr string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flowcanvas HTTP API",
		Long: `Run the flowcanvas HTTP API.

The server exposes document CRUD plus layout and render endpoints. By
default it keeps documents in memory and caches layouts on disk; point it
at MongoDB (--mongo-uri) for persistent documents and at Redis
(--redis-addr) for a cache shared across replicas.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, mongoURI, mongoDB, redisAddr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI (default: in-memory store)")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", "flowcanvas", "MongoDB database name")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address (default: file cache)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, mongoURI, mongoDB, redisAddr string, noCache bool) error {
	st, err := c.newStore(ctx, mongoURI, mongoDB)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close(context.Background())

	cc, err := c.newServeCache(ctx, redisAddr, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	runner := pipeline.NewRunner(cc, nil, st, c.Logger)
	defer runner.Close()

	srv, err := server.New(server.Options{
		Addr:   addr,
		Runner: runner,
		Logger: c.Logger,
	})
	if err != nil {
		return err
	}

	printInfo("Serving on %s", addr)
	return srv.ListenAndServe(ctx)
}

// newStore selects the document store backend.
func (c *CLI) newStore(ctx context.Context, mongoURI, mongoDB string) (store.Store, error) {
	if mongoURI == "" {
		c.Logger.Warn("no --mongo-uri given, documents are kept in memory")
		return store.NewMemoryStore(), nil
	}
	return store.NewMongoStore(ctx, store.MongoOptions{URI: mongoURI, Database: mongoDB})
}

// newServeCache selects the cache backend for the server.
func (c *CLI) newServeCache(ctx context.Context, redisAddr string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		return cache.NewRedisCache(ctx, cache.RedisOptions{Addr: redisAddr})
	}
	return newCache(false)
}
