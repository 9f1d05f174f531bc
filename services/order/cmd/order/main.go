package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/ezpickup/pkg/authclient"
	pkgdb "github.com/Skotchmaster/ezpickup/pkg/db"
	"github.com/Skotchmaster/ezpickup/pkg/logging"
	loggingmw "github.com/Skotchmaster/ezpickup/pkg/middleware/logging"
	"github.com/Skotchmaster/ezpickup/pkg/mykafka"

	ordercfg "github.com/Skotchmaster/ezpickup/services/order/internal/config"
	"github.com/Skotchmaster/ezpickup/services/order/internal/httpserver"
	"github.com/Skotchmaster/ezpickup/services/order/internal/notify"
	"github.com/Skotchmaster/ezpickup/services/order/internal/repo"
	"github.com/Skotchmaster/ezpickup/services/order/internal/search"
	"github.com/Skotchmaster/ezpickup/services/order/internal/service"
)

func main() {
	if err := godotenv.Load("services/order/.env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := ordercfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: db}

	dispatcher := &notify.Dispatcher{
		Outbox:      gormRepo,
		Tokens:      gormRepo,
		Orders:      gormRepo,
		Stores:      gormRepo,
		LinkBaseURL: cfg.LinkBaseURL,
		Async:       true,
	}
	if cfg.PushEnabled() {
		fcm, err := notify.NewFCMClientFromConfig(context.Background(), cfg.FCM)
		if err != nil {
			log.Fatalf("fcm: %v", err)
		}
		dispatcher.Push = fcm
	} else {
		logger.Warn("fcm disabled, push delivery is skipped")
	}
	if cfg.KakaoEnabled() {
		dispatcher.Kakao = notify.NewKakaoClient(cfg.Kakao)
	} else {
		logger.Warn("kakao disabled, guest messages are skipped")
	}

	orderSvc := &service.OrderService{
		Orders:      gormRepo,
		Catalog:     gormRepo,
		Stores:      gormRepo,
		Notifier:    dispatcher,
		EventsTopic: cfg.EventsTopic,
	}

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		orderSvc.Events = producer
	}

	if cfg.ESURL != "" {
		es, err := search.NewClient(search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.OrderIndex,
		})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		orderSvc.Index = &search.OrderIndex{ES: es, Index: cfg.OrderIndex}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler:        &httpserver.OrderHTTP{Svc: orderSvc},
		PaymentHandler:      &httpserver.PaymentHTTP{Svc: &service.PaymentService{Store: gormRepo, Stores: gormRepo}},
		NotificationHandler: &httpserver.NotificationHTTP{Svc: &service.NotificationService{Store: gormRepo}},
		JWTSecret:           cfg.JWTAccessSecret,
		AuthClient:          authclient.NewClient(cfg.AuthHTTPURL),
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	relay := &notify.Relay{
		Dispatcher: dispatcher,
		Interval:   cfg.OutboxInterval,
		Grace:      cfg.OutboxGrace,
		Batch:      cfg.OutboxBatch,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("order listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("order stopped with error", "error", err)
	}

	dispatcher.Wait()
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka close", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("order stopped")
}
