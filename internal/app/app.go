package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/auth"
	"github.com/vladislavdragonenkov/orders/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/orders/internal/health"
	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
	"github.com/vladislavdragonenkov/orders/internal/service/catalog"
	httpsvc "github.com/vladislavdragonenkov/orders/internal/service/http"
	"github.com/vladislavdragonenkov/orders/internal/service/order"
	"github.com/vladislavdragonenkov/orders/internal/storage/memory"
	"github.com/vladislavdragonenkov/orders/internal/storage/postgres"
	"github.com/vladislavdragonenkov/orders/internal/version"
)

const serviceName = "order-service"

// Config описывает настройки запуска приложения. Пустые опциональные
// поля (Postgres, Kafka, Redis) отключают соответствующую интеграцию.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	PostgresDSN       string
	ProductServiceURL string
	JWTSecret         string
	KafkaBrokers      string
	RedisAddr         string
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:          ":8080",
		MetricsAddr:       ":9090",
		ProductServiceURL: "http://localhost:8081",
		JWTSecret:         "dev-secret-change-me",
	}
}

// Run собирает зависимости и держит оба HTTP-сервера (API и ops)
// до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	healthHandler := healthcheck.NewHandler(serviceName, version.GetVersion())

	repo, store, err := initStorage(ctx, cfg, logger, healthHandler)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("не удалось закрыть подключение к postgres")
			}
		}()
	}

	catalogClient := initCatalog(cfg, logger)
	orderMetrics := metrics.NewOrderMetrics()

	opts := []order.Option{order.WithMetrics(orderMetrics)}

	kafkaProducer := initKafka(cfg, logger)
	if kafkaProducer != nil {
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				logger.WithError(err).Warn("не удалось закрыть kafka producer")
			}
		}()
		opts = append(opts, order.WithEventPublisher(kafka.NewPublisher(kafkaProducer)))
	}

	orderService := order.NewService(repo, catalogClient, log.WithField("component", "order-service"), opts...)
	gate := auth.NewGate(auth.NewJWTVerifier(cfg.JWTSecret))
	handler := httpsvc.NewHandler(orderService, gate, log.WithField("component", "http"))

	opsSrv := startOpsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpsvc.NewRouter(handler)}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(opsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(opsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// initStorage выбирает хранилище: Postgres с миграцией на старте, когда
// задан DSN, иначе in-memory для локальной разработки.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry, healthHandler *healthcheck.Handler) (repo domain.OrderRepository, store *postgres.Store, err error) {
	if cfg.PostgresDSN == "" {
		logger.Warn("postgres не настроен, используем in-memory хранилище")
		return memory.NewOrderRepository(), nil, nil
	}

	store, err = postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err = store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	logger.Info("postgres подключен, схема актуальна")

	healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return store.Ping(checkCtx)
	}))

	return postgres.NewOrderRepository(store), store, nil
}

func initCatalog(cfg Config, logger *log.Entry) *catalog.Client {
	var opts []catalog.Option
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		opts = append(opts, catalog.WithRedisCache(redisClient))
		logger.WithField("addr", cfg.RedisAddr).Info("кеш каталога включен")
	}
	return catalog.NewClient(cfg.ProductServiceURL, log.WithField("component", "catalog-client"), opts...)
}

func initKafka(cfg Config, logger *log.Entry) *kafka.Producer {
	if cfg.KafkaBrokers == "" {
		return nil
	}
	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("kafka недоступна, продолжаем без событий")
		return nil
	}
	logger.WithField("brokers", brokers).Info("kafka producer инициализирован")
	return producer
}

// startOpsServer запускает сервер метрик и health-проверок.
func startOpsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("ops server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("server shutdown with error")
	}
}
