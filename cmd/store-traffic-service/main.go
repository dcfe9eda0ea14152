package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"store-traffic-service/internal/config"
	"store-traffic-service/internal/db"
	httphandler "store-traffic-service/internal/http"
	"store-traffic-service/internal/live"
	"store-traffic-service/internal/logger"
	"store-traffic-service/internal/mirror"
	"store-traffic-service/internal/repository"
	"store-traffic-service/internal/service"
	"store-traffic-service/internal/utils"
)

const shutdownTimeout = 10 * time.Second

type trafficStore interface {
	service.TrafficWriter
	service.TrafficReader
	service.OccupancySource
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg, appLogger)
	sink := service.NewStorageSink(store, cfg.DB.HealthInterval, appLogger)

	hub := live.NewHub(appLogger)
	fanOut := service.NewFanOut().Add("websocket", hub)
	closeMirrors := attachMirrors(ctx, cfg, fanOut, appLogger)
	defer closeMirrors()

	generator := service.NewGenerator(
		service.GeneratorOptions{
			StoreIDs: cfg.Generator.StoreIDs,
			MaxIn:    cfg.Generator.MaxIn,
			Interval: cfg.Generator.Interval,
		},
		utils.NewWeightedSampler(cfg.Generator.ZeroProbability, nil),
		sink,
		fanOut,
		store,
		appLogger,
	)

	trafficService := service.NewTrafficService(store, cfg.Query.Timezone, cfg.Query.MaxRecentLimit)

	handler := httphandler.NewHandler(
		trafficService,
		sink,
		generator,
		hub,
		cfg.HTTP.CORSAllowedOrigins,
		cfg.Environment,
		appLogger,
	)
	router := httphandler.NewRouter(handler, cfg.HTTP.CORSAllowedOrigins, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() { _ = hub.Run(ctx) }()
	go func() { _ = sink.Watch(ctx) }()
	go func() { _ = generator.Run(ctx, sink.Recovered()) }()

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", addr).Strs("stores", storeLabels(cfg.Generator.StoreIDs)).Msg("starting store traffic service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			appLogger.Error().Err(err).Msg("failed to start server")
			stop()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStore never fails: without a usable database the sink simply stays
// degraded and queries report errors.
func openStore(cfg *config.Config, log zerolog.Logger) trafficStore {
	if cfg.DB.DSN == "" {
		log.Warn().Msg("DB_DSN not set, events will only be broadcast")
		return service.UnavailableStorage{}
	}

	database, err := db.New(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to open database, events will only be broadcast")
		return service.UnavailableStorage{}
	}
	return repository.NewTrafficRepository(database)
}

func attachMirrors(ctx context.Context, cfg *config.Config, fanOut *service.FanOut, log zerolog.Logger) func() {
	var closers []func()

	if cfg.Mirror.RedisURL != "" {
		client, err := mirror.ConnectRedis(ctx, cfg.Mirror.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis mirror disabled")
		} else {
			fanOut.Add("redis", mirror.NewRedisPublisher(client, cfg.Mirror.RedisChannel))
			closers = append(closers, func() { _ = client.Close() })
			log.Info().Str("channel", cfg.Mirror.RedisChannel).Msg("redis mirror enabled")
		}
	}

	if cfg.Mirror.MQTTURL != "" {
		client, err := mirror.ConnectMQTT(cfg.Mirror.MQTTURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("mqtt mirror disabled")
		} else {
			fanOut.Add("mqtt", mirror.NewMQTTPublisher(client, cfg.Mirror.MQTTTopicPrefix))
			closers = append(closers, func() { client.Disconnect(250) })
			log.Info().Str("prefix", cfg.Mirror.MQTTTopicPrefix).Msg("mqtt mirror enabled")
		}
	}

	return func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
}

func storeLabels(ids []int) []string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = strconv.Itoa(id)
	}
	return labels
}
