package main

import (
	"cashbook/config"
	"cashbook/controllers"
	"cashbook/database"
	"cashbook/middleware"
	"cashbook/services"
	"cashbook/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// store объединяет хранилища, которые нужны сервисам
type store interface {
	services.TransactionStore
	services.OpeningBalanceStore
	services.UserStore
}

// application содержит сервисы, собранные поверх хранилища
type application struct {
	cfg          *config.Config
	metrics      *utils.Metrics
	users        *services.UserService
	cashbook     *services.CashbookService
	export       *services.ExportService
	transactions *services.TransactionService
	balances     *services.OpeningBalanceService
}

func newApplication(cfg *config.Config, st store, notifier services.Notifier, metrics *utils.Metrics) *application {
	cashbook := services.NewCashbookService(st, st, metrics)
	return &application{
		cfg:          cfg,
		metrics:      metrics,
		users:        services.NewUserService(st),
		cashbook:     cashbook,
		export:       services.NewExportService(cashbook),
		transactions: services.NewTransactionService(st, st, st, notifier, metrics),
		balances:     services.NewOpeningBalanceService(st),
	}
}

// healthHandler сообщает о доступности сервиса и базы данных
func healthHandler(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// newRouter регистрирует маршруты API
func newRouter(app *application, limiter *utils.RateLimiter, ping func() error) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging(app.metrics))

	// Инициализируем контроллеры
	authController := controllers.NewAuthController(app.users, app.cfg)
	cashbookController := controllers.NewCashbookController(app.cashbook, app.export)
	transactionController := controllers.NewTransactionController(app.transactions)
	balanceController := controllers.NewOpeningBalanceController(app.balances)

	router.HandleFunc("/health", healthHandler(ping))
	router.Handle("/metrics", app.metrics.Handler()).Methods(http.MethodGet)

	// Публичные маршруты для аутентификации
	auth := router.PathPrefix("/api/auth").Subrouter()
	auth.Use(middleware.RateLimit(limiter))
	auth.HandleFunc("/signUp", authController.SignUp).Methods(http.MethodPost)
	auth.HandleFunc("/signIn", authController.SignIn).Methods(http.MethodPost)

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RateLimit(limiter))
	protected.Use(middleware.AuthMiddleware([]byte(app.cfg.JWT.SecretKey)))

	protected.HandleFunc("/me", authController.Me).Methods(http.MethodGet)

	// Кассовая книга
	protected.HandleFunc("/cashbook", cashbookController.GetCashbook).Methods(http.MethodGet)
	protected.HandleFunc("/cashbook/export.xml", cashbookController.ExportXML).Methods(http.MethodGet)

	// Транзакции
	protected.HandleFunc("/transactions", transactionController.Submit).Methods(http.MethodPost)
	protected.HandleFunc("/transactions/{id}", transactionController.Get).Methods(http.MethodGet)
	protected.Handle("/transactions/{id}/verify", middleware.RequireAdmin(http.HandlerFunc(transactionController.Verify))).Methods(http.MethodPost)
	protected.Handle("/transactions/{id}", middleware.RequireAdmin(http.HandlerFunc(transactionController.Delete))).Methods(http.MethodDelete)

	// Остатки на начало
	protected.HandleFunc("/opening-balances", balanceController.List).Methods(http.MethodGet)
	protected.Handle("/opening-balances", middleware.RequireAdmin(http.HandlerFunc(balanceController.Set))).Methods(http.MethodPut)

	return middleware.CORS(router)
}

// sweepLimiter периодически очищает неактивных клиентов ограничителя
func sweepLimiter(ctx context.Context, limiter *utils.RateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if err := utils.InitLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer utils.SyncLogger()
	logger := utils.Logger()

	// Инициализируем подключение к базе данных
	db, err := database.NewDatabase(cfg)
	if err != nil {
		logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := utils.GetMetrics()
	emailService := services.NewEmailService(cfg, metrics)
	app := newApplication(cfg, db, emailService, metrics)

	// Запускаем планировщик напоминаний
	scheduler := services.NewReminderSchedulerService(db, db, emailService, cfg.Scheduler.ReminderInterval)
	schedulerDone := scheduler.Start(ctx)
	logger.Info("Планировщик напоминаний запущен", zap.Duration("interval", cfg.Scheduler.ReminderInterval))

	limiter := utils.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go sweepLimiter(ctx, limiter, cfg.RateLimit.Window)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newRouter(app, limiter, db.Ping),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Запускаем сервер
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Сервер запущен", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Получен сигнал остановки")
	case err := <-serverErr:
		logger.Error("Ошибка запуска сервера", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", zap.Error(err))
	}
	<-schedulerDone
	logger.Info("Сервер остановлен")
}
