package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/seat-settlement/config"
	repository "github.com/ds124wfegd/seat-settlement/internal/database/postgres"
	cache "github.com/ds124wfegd/seat-settlement/internal/database/redis"
	"github.com/ds124wfegd/seat-settlement/internal/service"
	"github.com/ds124wfegd/seat-settlement/internal/transport"
	"github.com/ds124wfegd/seat-settlement/internal/worker"

	"github.com/ds124wfegd/seat-settlement/pkg/postgres"
	"github.com/ds124wfegd/seat-settlement/pkg/queue"
	"github.com/ds124wfegd/seat-settlement/pkg/redis"
	"github.com/ds124wfegd/seat-settlement/pkg/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	seatRepo := repository.NewEventSeatRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	layoutRepo := repository.NewLayoutRepository(db)
	txManager := repository.NewTxManager(db)

	// Initialize Redis-backed cache and task queue
	var statsCache *cache.StatisticsCache
	var taskQueue queue.Queue

	if cfg.Redis.Enabled {
		redisClient := redis.NewRedisClient(&cfg.Redis)
		defer redisClient.Close()

		statsCache = cache.NewStatisticsCache(redisClient, 30*time.Second)

		queueCfg := queue.DefaultRedisQueueConfig()
		queueCfg.MaxRetries = cfg.Queue.MaxRetries
		queueCfg.BaseDelay = cfg.Queue.BaseDelay
		retryManager := queue.NewRetryManager(cfg.Queue.MaxRetries, cfg.Queue.BaseDelay)

		taskQueue, err = queue.NewRedisQueue(redisClient, queueCfg, retryManager)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis queue: %v. Continuing without queue...", err)
			taskQueue = nil
		} else {
			logrus.Info("Redis queue initialized")
		}
	}

	var publisher service.TaskPublisher
	if taskQueue != nil {
		publisher = taskQueue
	}

	// Initialize services
	ticketService := service.NewTicketService(ticketRepo, seatRepo, sequenceRepo, txManager, cfg, logger)
	seatService := service.NewEventSeatService(seatRepo, layoutRepo, txManager, statsCache, publisher, ticketService, cfg, logger)
	settlementService := service.NewSettlementService(seatRepo, ticketRepo, bookingRepo, paymentRepo, sequenceRepo, txManager, statsCache, cfg, logger)
	bookingService := service.NewBookingService(bookingRepo)
	paymentService := service.NewPaymentService(paymentRepo, bookingRepo, txManager, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start queue consumer
	if taskQueue != nil {
		expiryWorker := worker.NewHoldExpiryWorker(seatService, taskQueue, statsCache)
		go expiryWorker.Start(ctx)
		logrus.Info("Hold expiry worker started")
	}

	// Start the periodic sweep that backs up queue-driven expiry
	sweepInterval := cfg.Worker.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	expiryScheduler := scheduler.NewScheduler(seatService, sweepInterval)
	go expiryScheduler.Start(ctx)
	logrus.Info("Hold expiry scheduler started")

	// Initialize handlers
	seatHandler := transport.NewSeatHandler(seatService)
	bookingHandler := transport.NewBookingHandler(bookingService, settlementService)
	paymentHandler := transport.NewPaymentHandler(paymentService)
	ticketHandler := transport.NewTicketHandler(ticketService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(seatHandler, bookingHandler, paymentHandler, ticketHandler)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if taskQueue != nil {
		if err := taskQueue.Close(); err != nil {
			logrus.Errorf("error occured on queue shutdown: %s", err.Error())
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
