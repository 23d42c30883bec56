package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templar-cli/templar/internal/server"
	"github.com/templar-cli/templar/pkg/cache"
	"github.com/templar-cli/templar/pkg/registry"
	"github.com/templar-cli/templar/pkg/store/local"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		templateDir string
		mongoURI    string
		redisAddr   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the templar registry server",
		Long: `Run the templar registry server.

Serves the resolution and composition pipeline over HTTP, backed by a
local template directory or (with --mongo-uri) a MongoDB store that also
accepts published templates. With --redis-addr, pipeline results are
cached in Redis; otherwise they are computed per request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.Config{Addr: addr, Logger: c.Logger}

			if mongoURI != "" {
				store, err := registry.NewMongoStore(cmd.Context(), registry.MongoConfig{URI: mongoURI})
				if err != nil {
					return fmt.Errorf("connect to MongoDB: %w", err)
				}
				defer store.Close(cmd.Context())
				cfg.Store = store
				cfg.Catalog = store
				cfg.Publisher = store
			} else {
				dir := templateDir
				if dir == "" {
					dir = c.Config.TemplateDir
				}
				if dir == "" {
					dir = defaultTemplateDir
				}
				store, err := local.New(dir)
				if err != nil {
					return err
				}
				cfg.Store = store
				cfg.Catalog = store
			}

			if redisAddr != "" {
				redis, err := cache.NewRedisCache(cmd.Context(), cache.RedisConfig{Addr: redisAddr})
				if err != nil {
					return fmt.Errorf("connect to Redis: %w", err)
				}
				defer redis.Close()
				cfg.Cache = redis
			}

			return server.New(cfg).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8630", "listen address")
	cmd.Flags().StringVarP(&templateDir, "templates", "t", "", "template directory to serve (default from templar.toml, else ./templates)")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection string (enables the publish API)")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for result caching")

	return cmd
}
