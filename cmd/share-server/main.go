package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"

	"github.com/mcsurly/jclouds/pkg/jclouds"
	"github.com/mcsurly/jclouds/pkg/jclouds/api"
	"github.com/mcsurly/jclouds/pkg/jclouds/config"
	"github.com/mcsurly/jclouds/pkg/jclouds/config/awsssm"
	configpg "github.com/mcsurly/jclouds/pkg/jclouds/config/postgres"
	"github.com/mcsurly/jclouds/pkg/jclouds/provider/mem"
	"github.com/mcsurly/jclouds/pkg/jclouds/provider/s3"
)

type Config struct {
	JwtSecret  string `env:"JWT_SECRET" env-default:""`
	ConfigFile string `env:"PROVIDERS_FILE" env-default:""`
	EnvPrefix  string `env:"PROVIDERS_ENV_PREFIX" env-default:"JCLOUDS"`

	// Optional Postgres property source
	DatabaseURL string `env:"DATABASE_URL" env-default:""`
	DbTable     string `env:"PROPERTIES_TABLE" env-default:"jclouds_properties"`

	// Optional SSM Parameter Store property source
	SsmPath   string `env:"SSM_PATH" env-default:""`
	SsmRegion string `env:"SSM_REGION" env-default:""`
}

func main() {
	godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	loadOpts, cleanup, err := configOptions(ctx, cfg)
	if err != nil {
		slog.Error("Failed to assemble configuration sources", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	props, err := config.Load(ctx, loadOpts...)
	if err != nil {
		slog.Error("Failed to load provider configuration", "err", err)
		os.Exit(1)
	}

	registry := jclouds.NewRegistry()
	s3.Register(registry)
	mem.Register(registry)

	factory := jclouds.NewFactory(
		jclouds.WithBaseProperties(props),
		jclouds.WithRegistry(registry),
		jclouds.WithLogger(slog.Default()),
	)

	handlerOpts := []api.Option{api.WithLogger(slog.Default())}
	if cfg.JwtSecret != "" {
		handlerOpts = append(handlerOpts, api.WithJWTAuth(jwtauth.New("HS256", []byte(cfg.JwtSecret), nil)))
	} else {
		slog.Warn("JWT_SECRET not set, share route is unauthenticated")
	}
	shareHandler := api.NewShareHandler(factory, handlerOpts...)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	server.R.Route("/api/v1", func(r chi.Router) {
		r.Mount("/", shareHandler.Routes())
	})

	slog.Info("Share server starting", "providers", registry.SupportedProviders())
	server.Run()
}

// configOptions maps the process environment to configuration overlays:
// file, environment, then Postgres and SSM when configured. The returned
// cleanup closes the database pool, if one was opened.
func configOptions(ctx context.Context, cfg Config) ([]config.Option, func(), error) {
	var opts []config.Option
	cleanup := func() {}

	if cfg.ConfigFile != "" {
		opts = append(opts, config.WithFile(cfg.ConfigFile))
	}
	opts = append(opts, config.WithEnv(cfg.EnvPrefix))

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, cleanup, err
		}
		cleanup = pool.Close
		opts = append(opts, config.WithSource(configpg.NewSource(pool, configpg.WithTable(cfg.DbTable))))
	}

	if cfg.SsmPath != "" {
		opts = append(opts, config.WithSource(
			awsssm.NewSource(cfg.SsmPath, awsssm.WithRegion(cfg.SsmRegion))))
	}

	return opts, cleanup, nil
}
