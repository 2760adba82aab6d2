package main

import (
	"context"
	"expvar"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chathooks/hooks"
	"chathooks/internal"
	"chathooks/pkg/api"
	"chathooks/pkg/storage/hookstore"
	"chathooks/webhook"

	"golang.org/x/net/netutil"
)

func main() {
	logger := internal.NewLogger("server")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	config, err := internal.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	store, err := hookstore.Open(hookstore.Config{
		Driver:      config.Storage.Driver,
		DSN:         config.Storage.DSN,
		AutoMigrate: config.Storage.AutoMigrate,
	})
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer store.Close()

	var shortener internal.Shortener = internal.NoopShortener{}
	if config.Shortener.Enabled {
		dagd := internal.NewDagdShortener(internal.NewLogger("shortener"))
		if config.Shortener.Endpoint != "" {
			dagd.Endpoint = config.Shortener.Endpoint
		}
		shortener = dagd
	}

	registry, err := hooks.DefaultRegistry(hooks.Deps{
		Palette:   internal.MircPalette(),
		Shortener: shortener,
	}, internal.NewLogger("registry"))
	if err != nil {
		logger.Fatalf("registry: %v", err)
	}

	ruleEngine, err := internal.NewRuleEngine(internal.RulesConfig{
		Rules:  config.Rules,
		Strict: config.RulesStrict,
		Logger: logger,
	})
	if err != nil {
		logger.Fatalf("compile rules: %v", err)
	}

	publisher, err := internal.NewPublisher(config.Watermill)
	if err != nil {
		logger.Fatalf("publisher: %v", err)
	}
	defer publisher.Close()

	dispatcher := &webhook.Dispatcher{
		Registry:  registry,
		Store:     store,
		Rules:     ruleEngine,
		Publisher: publisher,
	}

	mux := http.NewServeMux()
	maxBody := config.Server.MaxBodyBytes

	hookHandler := webhook.NewHookHandler(dispatcher, internal.NewLogger("hook"), maxBody)
	mux.Handle(hookHandler.Prefix, hookHandler)

	if config.Providers.GitHub.Enabled {
		ghHandler, err := webhook.NewGitHubHandler(
			config.Providers.GitHub.Secret,
			dispatcher,
			internal.NewLogger("github"),
			config.Providers.GitHub.Path,
			maxBody,
		)
		if err != nil {
			logger.Fatalf("github handler: %v", err)
		}
		mux.Handle(config.Providers.GitHub.Path, ghHandler)
		logger.Printf("github webhook enabled on %s", config.Providers.GitHub.Path)
	}

	if config.Providers.GitLab.Enabled {
		glHandler, err := webhook.NewGitLabHandler(
			config.Providers.GitLab.Secret,
			dispatcher,
			internal.NewLogger("gitlab"),
			config.Providers.GitLab.Path,
			maxBody,
		)
		if err != nil {
			logger.Fatalf("gitlab handler: %v", err)
		}
		mux.Handle(config.Providers.GitLab.Path, glHandler)
		logger.Printf("gitlab webhook enabled on %s", config.Providers.GitLab.Path)
	}

	if config.Providers.Bitbucket.Enabled {
		bbHandler := webhook.NewBitbucketHandler(
			dispatcher,
			internal.NewLogger("bitbucket"),
			config.Providers.Bitbucket.Path,
			maxBody,
		)
		mux.Handle(config.Providers.Bitbucket.Path, bbHandler)
		logger.Printf("bitbucket webhook enabled on %s", config.Providers.Bitbucket.Path)
	}

	apiLogger := internal.NewLogger("api")
	mux.Handle("/api/projects", &api.ProjectsHandler{Store: store, Logger: apiLogger})
	mux.Handle("/api/hooks", &api.HooksHandler{Store: store, Registry: registry, HookPath: hookHandler.Prefix, Logger: apiLogger})
	mux.Handle("/api/channels", &api.ChannelsHandler{Store: store, Logger: apiLogger})
	mux.Handle("/api/adapters", &api.AdaptersHandler{Registry: registry})
	mux.Handle("/api/webhooks/register", &api.RegisterWebhookHandler{
		Store: store,
		Providers: api.ProviderSet{
			GitHub:    config.Providers.GitHub,
			GitLab:    config.Providers.GitLab,
			Bitbucket: config.Providers.Bitbucket,
		},
		PublicBaseURL: config.Server.PublicBaseURL,
		Logger:        apiLogger,
	})

	if config.Server.MetricsEnabled {
		mux.Handle(config.Server.MetricsPath, expvar.Handler())
		logger.Printf("metrics enabled on %s", config.Server.MetricsPath)
	}

	handler := internal.NewRateLimitHandler(mux,
		config.Server.RateLimitRPS,
		config.Server.RateLimitBurst,
		10*time.Minute,
	)

	addr := ":" + strconv.Itoa(config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(config.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout:      time.Duration(config.Server.WriteTimeoutMS) * time.Millisecond,
		IdleTimeout:       time.Duration(config.Server.IdleTimeoutMS) * time.Millisecond,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderMS) * time.Millisecond,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}
	if config.Server.MaxConns > 0 {
		listener = netutil.LimitListener(listener, config.Server.MaxConns)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Printf("listening on %s", addr)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("serve: %v", err)
		}
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
