package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/storefront-backend/db"
	config "github.com/DRSN-tech/storefront-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/storefront-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/storefront-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/storefront-backend/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/storefront-backend/internal/repository/minio"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/storefront-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/closer"
	"github.com/DRSN-tech/storefront-backend/pkg/clients"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/DRSN-tech/storefront-backend/pkg/postgres"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"golang.org/x/sync/errgroup"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
	topicTimeout    = 10 * time.Second
)

// App — собранное приложение: серверы и фоновые задачи поверх общих ресурсов.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv  *v1Http.Server
	grpcSrv  *v1Grpc.GRPCServer
	listener *pgdb.Listener
	sweeper  *usecase.ExpirySweeper
	worker   *kafka.OutboxWorker

	// bgCtx отменяется при остановке и прерывает фоновые повторы (очистка MinIO)
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// NewApp подключается к внешним системам, применяет миграции и собирает зависимости.
// Ресурсы, открытые до ошибки, закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		logger:   log,
		closer:   closer.NewCloser(2 * time.Second),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}

	if err := a.init(); err != nil {
		bgCancel()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := a.closer.Close(ctx); cerr != nil {
			log.Warnf("cleanup after failed start: %v", cerr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	cfg, log := a.cfg, a.logger

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	database, err := initPGDB(ctx, log, cfg)
	if err != nil {
		return err
	}
	a.closer.AddFunc("postgres", database.Close)

	txManager := manager.Must(trmpgx.NewDefaultFactory(database.Pool))

	a.listener = pgdb.NewListener(database.Dsn, log)
	a.closer.AddFunc("postgres listener", a.listener.Close)

	productRepo := pgdb.NewProductRepo(database.Pool, &pgdbConv.ProductConverterImpl{}, a.listener)
	orderRepo := pgdb.NewOrderRepo(database.Pool, &pgdbConv.OrderConverterImpl{}, a.listener)
	messageRepo := pgdb.NewMessageRepo(database.Pool, &pgdbConv.MessageConverterImpl{}, a.listener)
	outboxRepo := pgdb.NewOutboxEventRepo(database.Pool, &pgdbConv.OutboxEventConverterImpl{}, cfg.Outbox.StaleAfter)

	redisClient := clients.NewRedisClient(cfg.Redis)
	a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })
	if err := redisClient.Ping(ctx); err != nil {
		return e.Wrap("failed to connect to redis", err)
	}
	cacheRepo := redis.NewCacheRepo(redisClient, &redisConv.ProductConverterImpl{}, cfg.Redis, log)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return e.Wrap("failed to initialize minio client", err)
	}
	if err := clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName); err != nil {
		return e.Wrap("failed to initialize MinIO bucket", err)
	}
	proofInfra := minioInfra.NewProofInfrastructure(s3Repo.NewProofRepo(minioClient, cfg.Minio), cfg.Minio.BucketName, log, a.bgCtx)
	a.closer.Add("minio cleanup", proofInfra.WaitForCleanup)

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return e.Wrap("failed to initialize kafka producer", err)
	}
	a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })
	if err := producer.EnsureTopic(topicTimeout); err != nil {
		// outbox накапливает события и опубликует их, когда Kafka станет доступна
		log.Warnf("kafka topic %s not ensured: %v", cfg.Kafka.Topic, err)
	}
	a.worker = kafka.NewOutboxWorker(outboxRepo, log, producer, database.Dsn, cfg.Outbox.BatchSize, cfg.Outbox.PollInterval)

	ledger := usecase.NewStockLedger(productRepo, cacheRepo, log)
	dispatcher := usecase.NewNotificationDispatcher(messageRepo, nil)
	lifecycle := usecase.NewOrderLifecycle(
		orderRepo,
		outboxRepo,
		txManager,
		ledger,
		usecase.NewVoucherGenerator(cfg.Orders.VoucherHeader, cfg.Orders.VoucherFooter),
		dispatcher,
		log,
		nil,
	)
	a.sweeper = usecase.NewExpirySweeper(orderRepo, lifecycle, cfg.Orders.PendingTimeout, log, nil)
	orderUC := usecase.NewOrderStore(orderRepo, messageRepo, lifecycle, a.sweeper, dispatcher, proofInfra, cfg.Orders.MaxOrderQuantity, log, nil)
	productUC := usecase.NewProductUC(productRepo, cacheRepo, ledger, txManager, log)

	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, log)
	a.grpcSrv.RegisterServices(productUC)

	r := chi.NewRouter()
	v1Http.NewRouter(r, log, cfg.Http).Init(orderUC, productUC)
	a.httpSrv = v1Http.NewServer(r, cfg.Http)

	return nil
}

// Run запускает серверы и фоновые задачи и блокируется до сигнала остановки или отказа одного из серверов.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			return e.Wrap("HTTP server failed", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			return e.Wrap("gRPC server failed", err)
		}
		return nil
	})

	g.Go(func() error {
		a.listener.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.sweeper.Run(gctx, a.cfg.Orders.SweepInterval)
		return nil
	})

	a.worker.Start(gctx)

	// === Graceful shutdown ===
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Infof("Stopping gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := a.httpSrv.Stop(shutdownCtx); err != nil {
			a.logger.Errorf(err, "HTTP server shutdown error")
		}
		if err := a.grpcSrv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			a.logger.Errorf(err, "gRPC server shutdown error")
		}
		return nil
	})

	appErr := g.Wait()
	if appErr != nil {
		a.logger.Errorf(appErr, "server fatal error")
	}

	a.worker.Wait()
	a.sweeper.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.closer.Close(closeCtx); err != nil {
		a.logger.Warnf("resource shutdown: %v", err)
	}
	a.bgCancel()

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	database, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := database.RunMigrations(db.Migrations, "migrations", logger); err != nil {
		database.Close()
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return database, nil
}
