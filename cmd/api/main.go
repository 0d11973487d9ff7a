package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodorder/internal/config"
	"foodorder/internal/handler"
	"foodorder/internal/infra/db"
	"foodorder/internal/infra/events"
	"foodorder/internal/infra/payment"
	infraRepo "foodorder/internal/infra/repository"
	"foodorder/internal/server"
	"foodorder/internal/usecase"
	auth "foodorder/internal/usecase/auth_usecase"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	//.envは無くてもよい（本番は環境変数のみ）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	startedAt := time.Now()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	restaurantRepo := infraRepo.NewRestaurantGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//イベント送信（RABBITMQ_URLが無ければ送らない）
	var publisher usecase.OrderEventPublisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal("rabbitmq connect", zap.Error(err))
		}
		defer conn.Close()

		p, err := events.NewPublisher(conn)
		if err != nil {
			logger.Fatal("rabbitmq publisher", zap.Error(err))
		}
		defer p.Close()
		publisher = p
	} else {
		logger.Info("RABBITMQ_URL not set, order events disabled")
	}

	gateway := payment.NewGateway(cfg.FEURL, cfg.WebhookSecret)

	//usecaseに渡す部品
	clock := &realClock{}
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	logoutUC := auth.NewLogoutUsecase(userRepo)
	userUC := usecase.NewUserUsecase(userRepo)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, restaurantRepo, gateway, publisher, logger, cfg.FEURL)
	myRestaurantUC := usecase.NewMyRestaurantUsecase(txm, restaurantRepo, orderRepo, publisher, logger)
	restaurantUC := usecase.NewRestaurantUsecase(restaurantRepo)
	analyticsUC := usecase.NewAnalyticsUsecase(restaurantRepo, orderRepo)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	//Handler生成
	e := server.New(cfg, logger, userRepo, server.Handlers{
		Health:       handler.NewHealthHandler(startedAt),
		Auth:         handler.NewAuthHandler(registerUC, loginUC, logoutUC),
		User:         handler.NewUserHandler(userUC),
		MyRestaurant: handler.NewMyRestaurantHandler(myRestaurantUC),
		Restaurant:   handler.NewRestaurantHandler(restaurantUC),
		Order:        handler.NewOrderHandler(orderUC),
		Analytics:    handler.NewAnalyticsHandler(analyticsUC),
		AdminAudit:   handler.NewAdminAuditHandler(auditUC),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//Server起動
	if err := server.Start(ctx, e, cfg.Addr(), logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
