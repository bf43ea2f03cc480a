// Package main (in api-subfolder) provides launch of the whole application except worker
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

	"github.com/UnendingLoop/ImageDrop/internal/imageproc"
	"github.com/UnendingLoop/ImageDrop/internal/kafka"
	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/UnendingLoop/ImageDrop/internal/mwlogger"
	"github.com/UnendingLoop/ImageDrop/internal/repository"
	"github.com/UnendingLoop/ImageDrop/internal/service"
	"github.com/UnendingLoop/ImageDrop/internal/storage"
	"github.com/UnendingLoop/ImageDrop/internal/storage/s3storage"
	"github.com/UnendingLoop/ImageDrop/internal/transport"
	"github.com/UnendingLoop/ImageDrop/internal/uploader"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	level := appConfig.GetString("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	if err := zlog.SetLevel(level); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключитсья к базе
	dbConn := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	// накатываем миграцию
	repository.MigrateWithRetries(dbConn.Master, "./migrations", 10, 15*time.Second)
	// создаем экземпляр репо
	repo := repository.NewPostgresEventRepo(dbConn)

	// ждем пока кафка раздуплится
	broker := appConfig.GetString("KAFKA_BROKER")
	if !kafka.WaitKafkaReady(ctx, broker, 10*time.Second) {
		log.Fatalln("Interrupted while waiting for Kafka. Exiting app...")
	}
	// подключиться к кафке как продюсер
	topic := appConfig.GetString("KAFKA_TOPIC")
	kafka.InitKafkaTopics(ctx, broker, 10*time.Second, topic)
	pub := wbfkafka.NewProducer([]string{broker}, topic)

	// собираем загрузчик с драйверами под каждую схему из конфига
	settings := service.SettingsFromConfig(appConfig)
	up := newUploader(ctx, appConfig, settings.Endpoints)

	// создаем экземпляр сервиса
	svc := service.NewUploadService(settings, imageproc.NewSanitizer(nil), up, pub, repo)
	svc.SetObserver(func(batchID string, stage service.Stage, percent int) {
		zlog.Logger.Debug().Str("batch_id", batchID).Str("stage", string(stage)).Int("progress", percent).Msg("Upload progress")
	})
	var api UploadAPIService = svc

	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewUploadHandler(api)
	// сетапим сервер
	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	metricsHandler := promhttp.Handler()

	engine.GET("/ping", handlers.SimplePinger)
	engine.GET("/metrics", func(c *ginext.Context) { metricsHandler.ServeHTTP(c.Writer, c.Request) })
	engine.POST("/images/upload", handlers.Upload)                           // загрузка пачки
	engine.GET("/images/progress/:batch", handlers.Progress)                 // прогресс пачки
	engine.GET("/drafts/:draft/images", handlers.ListAttachments)            // текущие вложения
	engine.DELETE("/drafts/:draft/images/:index", handlers.RemoveAttachment) // удалить одно
	engine.DELETE("/drafts/:draft/images", handlers.ClearAttachments)        // удалить все
	engine.GET("/drafts/:draft/events", handlers.History)                    // журнал из БД

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

	// ждем отмены контекста для запуска грейсфул закрытия соединений бд и кафки
	<-ctx.Done()

	shutdown(srv, pub, dbConn)
	log.Println("Exiting app...")
}

func newUploader(ctx context.Context, cfg *config.Config, endpoints []model.Endpoint) *uploader.Uploader {
	attempts, err := strconv.Atoi(cfg.GetString("UPLOAD_ATTEMPTS"))
	if err != nil || attempts <= 0 {
		attempts = 2
	}
	timeout, err := time.ParseDuration(cfg.GetString("UPLOAD_TIMEOUT"))
	if err != nil {
		timeout = uploader.DefaultTimeout
	}

	up := uploader.NewUploader(retry.Strategy{
		Attempts: attempts,
		Delay:    500 * time.Millisecond,
		Backoff:  2,
	})
	up.Register(uploader.NewBlossomDriver(timeout), "http", "https")

	schemes := make(map[string]bool, len(endpoints))
	for _, ep := range endpoints {
		schemes[ep.Scheme()] = true
	}

	// объектные хранилища подключаем только если они есть в UPLOAD_SERVERS
	if schemes["minio"] {
		strg := storage.NewImgStorage(cfg, 10*time.Second)
		up.Register(storage.NewDriver(strg), "minio")
	}
	if schemes["s3"] {
		s3, err := s3storage.NewS3Storage(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to init S3 storage: %v", err)
		}
		up.Register(storage.NewDriver(s3), "s3")
	}

	return up
}

func shutdown(srv *http.Server, pub *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to shutdown HTTP-server correctly:", err)
	}

	// Closing Kafka connection:
	if err := pub.Close(); err != nil {
		log.Println("Failed to close Kafka-writer:", err)
	}
	log.Println("Kafka-producer connection closed.")

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
