// Package main provides launch of the whole application
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/UnendingLoop/pixelpushup/internal/imageproc"
	"github.com/UnendingLoop/pixelpushup/internal/kafka"
	"github.com/UnendingLoop/pixelpushup/internal/model"
	"github.com/UnendingLoop/pixelpushup/internal/mwlogger"
	"github.com/UnendingLoop/pixelpushup/internal/pipeline"
	"github.com/UnendingLoop/pixelpushup/internal/service"
	"github.com/UnendingLoop/pixelpushup/internal/storage"
	"github.com/UnendingLoop/pixelpushup/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	zlog.InitConsole()
	if err := zlog.SetLevel("info"); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// interruption listener - context for the whole app
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// object store collaborator
	strg := storage.NewImgStorage(appConfig, 10*time.Second)

	// completion-event publisher: real Kafka producer when a broker is
	// configured, noop otherwise
	var pub service.TaskPublisher = NoopPublisher{}
	var producer *wbfkafka.Producer
	if broker := appConfig.GetString("KAFKA_BROKER"); broker != "" {
		kafka.WaitKafkaReady(broker)
		topic := appConfig.GetString("KAFKA_TOPIC")
		kafka.InitKafkaTopics(ctx, broker, 10*time.Second, topic)
		producer = wbfkafka.NewProducer([]string{broker}, topic)
		pub = producer
	}

	// shared resources of the derivative phase: created once, injected,
	// closed on exit
	pool := pipeline.NewPool(intConfig(appConfig, "POOL_SIZE", 0))
	cache := imageproc.NewDimensionCache()

	encoding := imageproc.DefaultEncoding()
	if maxDim := intConfig(appConfig, "MAX_SRC_DIMENSION", 0); maxDim > 0 {
		encoding.MaxSourceDimension = maxDim
	}
	gen := imageproc.NewGenerator(encoding, cache)

	pl := pipeline.New(gen, pool, originalMode(appConfig))

	var svc PushupAPIService = service.NewPushupService(
		pl,
		strg,
		pub,
		appConfig.GetString("BUCKET_NAME"),
		appConfig.GetString("REMOTE_OVERWRITE") != "false",
	)
	handlers := transport.NewPushupHandler(svc)

	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/pushup", handlers.Pushup)

	srv := &http.Server{
		Addr:    ":" + appConfig.GetString("APP_PORT"),
		Handler: mwlogger.NewMWLogger(engine),
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	<-ctx.Done()

	shutdown(srv, producer, pool)
	log.Println("Exiting app...")
}

func intConfig(cfg *config.Config, key string, fallback int) int {
	raw := cfg.GetString(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Ignoring non-numeric %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return val
}

func originalMode(cfg *config.Config) model.OriginalMode {
	switch cfg.GetString("ORIGINAL_MODE") {
	case string(model.OriginalReencode):
		return model.OriginalReencode
	default:
		return model.OriginalPassthrough
	}
}

func shutdown(srv *http.Server, producer *wbfkafka.Producer, pool *pipeline.Pool) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to shut down HTTP-server correctly:", err)
	}
	log.Println("HTTP-server stopped.")

	// in-flight derivative tasks are drained before exit
	pool.Close()
	log.Println("Worker pool drained and closed.")

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Println("Failed to close Kafka-producer:", err)
		}
		log.Println("Kafka-producer connection closed.")
	}
}
