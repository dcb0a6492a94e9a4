// SPDX-License-Identifier: AGPL-3.0-only
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluffyriot/notbadfeed/internal/api"
	"github.com/fluffyriot/notbadfeed/internal/api/handlers"
	"github.com/fluffyriot/notbadfeed/internal/cli"
	"github.com/fluffyriot/notbadfeed/internal/commentcache"
	"github.com/fluffyriot/notbadfeed/internal/config"
	"github.com/fluffyriot/notbadfeed/internal/feed"
	"github.com/fluffyriot/notbadfeed/internal/feedapi"
	"github.com/fluffyriot/notbadfeed/internal/logging"
	"github.com/fluffyriot/notbadfeed/internal/session"
	"github.com/fluffyriot/notbadfeed/internal/web"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.Setup(cfg.IsProduction(), cfg.LogLevel)
	client := feedapi.NewClient(cfg.APIBaseURL, cfg.APITimeout())

	cmd := "serve"
	args := []string{}
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	ctx := context.Background()

	switch cmd {
	case "serve":
		if err := serve(cfg, client, logger); err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		_ = fs.Parse(args)
		err = cli.HandleLogin(ctx, client, os.Stdout, *email, func() (string, error) {
			return cli.ReadPassword(os.Stderr, "Password: ")
		})
	case "feed", "posts":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		token := fs.String("token", "", "bearer token from login")
		user := fs.Int("user", 0, "user id")
		_ = fs.Parse(args)
		if cmd == "feed" {
			err = cli.HandleFeed(ctx, client, os.Stdout, *token, *user)
		} else {
			err = cli.HandlePosts(ctx, client, os.Stdout, *token, *user)
		}
	case "comments":
		fs := flag.NewFlagSet("comments", flag.ExitOnError)
		token := fs.String("token", "", "bearer token from login")
		post := fs.Int("post", 0, "post id")
		_ = fs.Parse(args)
		err = cli.HandleComments(ctx, client, os.Stdout, *token, *post)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\nusage: notbadfeed [serve|login|feed|posts|comments]\n", cmd)
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func newCommentStore(cfg *config.AppConfig) (commentcache.Store, func(), error) {
	if cfg.CommentCache == config.CacheRedis {
		rdb, err := commentcache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return commentcache.NewRedisStore(rdb, cfg.CommentCacheTTL()), func() { _ = rdb.Close() }, nil
	}

	store, err := commentcache.NewMemoryStore(cfg.CommentCacheSize)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func serve(cfg *config.AppConfig, client *feedapi.Client, logger *slog.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore, err := newCommentStore(cfg)
	if err != nil {
		return fmt.Errorf("comment cache: %w", err)
	}
	defer closeStore()

	tmpl, err := web.Templates(time.Local)
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	static, err := web.Static()
	if err != nil {
		return fmt.Errorf("static files: %w", err)
	}

	svc := feed.NewService(client, store, logger)
	router := api.NewRouter(api.RouterOptions{
		Handler:   handlers.NewHandler(svc, cfg, logger),
		Store:     session.NewStore(cfg.SessionAuthKey, cfg.SessionEncKey, cfg.CookieSecure),
		Templates: tmpl,
		Static:    static,
		Logger:    logger,
		TLS:       cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Server starting",
		"port", cfg.Port,
		"api", cfg.APIBaseURL,
		"comment_cache", string(cfg.CommentCache),
		"version", config.AppVersion,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
