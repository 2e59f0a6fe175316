// File: backend/cmd/apiserver/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fntelecomllc/domainfinder/backend/internal/api"
	"github.com/fntelecomllc/domainfinder/backend/internal/availcache"
	"github.com/fntelecomllc/domainfinder/backend/internal/config"
	"github.com/fntelecomllc/domainfinder/backend/internal/dnsprobe"
	"github.com/fntelecomllc/domainfinder/backend/internal/finder"
	"github.com/fntelecomllc/domainfinder/backend/internal/llm"
	"github.com/fntelecomllc/domainfinder/backend/internal/namecheap"
)

const (
	configFilePath  = "config.json"
	shutdownTimeout = 10 * time.Second
)

func main() {
	appConfig, err := config.Load(configFilePath)
	if err != nil {
		log.Printf("Main: Notice during config.Load: %v. Application will proceed with available/defaulted config.", err)
	}
	if appConfig == nil {
		log.Fatalf("CRITICAL: Configuration could not be loaded by config.Load, and no defaults were returned. Exiting.")
	}
	appConfig.LogEnvironmentReport()

	generator := llm.NewChatClient(appConfig.Generator)
	registrar := namecheap.NewClient(appConfig.Registrar)
	batcher := finder.NewBatcher(registrar, appConfig.Registrar.BatchSize, appConfig.Registrar.BatchDelay)
	log.Printf("Main: Registrar batches of %d, %s apart.", appConfig.Registrar.BatchSize, appConfig.Registrar.BatchDelay)

	var opts []finder.Option
	if appConfig.DNSProbe.Enabled {
		log.Printf("Main: DNS delegation pre-filter enabled (%d resolvers, system=%t).", len(appConfig.DNSProbe.Resolvers), appConfig.DNSProbe.UseSystemResolvers)
		opts = append(opts, finder.WithDelegationProbe(dnsprobe.New(appConfig.DNSProbe)))
	}

	var sweeper *availcache.Sweeper
	switch appConfig.Cache.Backend {
	case config.CacheBackendMemory:
		store := availcache.NewMemoryStore(appConfig.Cache.TTL)
		sweeper = availcache.NewSweeper(store, appConfig.Cache.SweepSchedule)
		if err := sweeper.Start(); err != nil {
			log.Printf("Main: Cache sweeper not started: %v. Expired entries will only be skipped on read.", err)
			sweeper = nil
		}
		opts = append(opts, finder.WithCache(store))
		log.Printf("Main: Availability cache: memory (ttl %s).", appConfig.Cache.TTL)
	case config.CacheBackendRedis:
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := availcache.NewRedisClient(pingCtx, appConfig.Cache.RedisURL)
		cancel()
		if err != nil {
			log.Printf("Main: Redis unavailable (%v). Availability cache disabled.", err)
			break
		}
		defer rdb.Close()
		opts = append(opts, finder.WithCache(availcache.NewRedisStore(rdb, appConfig.Cache.TTL)))
		log.Printf("Main: Availability cache: redis (ttl %s).", appConfig.Cache.TTL)
	default:
		log.Printf("Main: Availability cache disabled.")
	}

	svc := finder.NewService(appConfig, generator, batcher, opts...)
	if err := svc.CheckCredentials(); err != nil {
		log.Printf("Main: WARNING: searches will fail until configuration is fixed: %v", err)
	}

	router := api.NewRouter(appConfig, svc)
	serverAddr := ":" + appConfig.Server.Port
	httpServer := &http.Server{
		Handler:      router,
		Addr:         serverAddr,
		WriteTimeout: appConfig.SearchWriteTimeout(),
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Main: Write timeout %s covers searches of up to %d names.", httpServer.WriteTimeout, appConfig.Search.MaxCount)

	if appConfig.Server.APIKey != "" {
		log.Printf("API Key configured (length: %d). /api routes require a bearer token.", len(appConfig.Server.APIKey))
	} else {
		log.Printf("API Key: not set. /api routes are open; set %s to require a bearer token.", config.EnvServerAPIKey)
	}

	go func() {
		log.Printf("Starting DomainFinder API server on http://localhost%s", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server ListenAndServe failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Main: Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Main: Shutdown error: %v", err)
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	log.Println("Main: Stopped.")
}
