package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/config"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/handler"
	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/internal/middleware"
	pgRepo "github.com/yourusername/quiz-master/internal/repository/postgres"
	redisRepo "github.com/yourusername/quiz-master/internal/repository/redis"
	"github.com/yourusername/quiz-master/internal/service"
	"github.com/yourusername/quiz-master/internal/storage"
	"github.com/yourusername/quiz-master/pkg/auth"
	"github.com/yourusername/quiz-master/pkg/auth/manager"
	"github.com/yourusername/quiz-master/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		// логгер еще не создан
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.App.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction && cfg.UsesDefaultSecret() {
		log.Warn("SECRET_KEY is not set, using the development default")
	}
	loc := cfg.App.Location()
	log.Info("Configuration loaded", "path", configPath, "timezone", loc.String(), "production", isProduction)

	// Инициализируем подключение к PostgreSQL и применяем миграции
	db, err := database.NewPostgresDB(cfg.Database, !isProduction)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath, log); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis опционален: без него не работают отзыв сессий и rate limiting
	var cacheRepo repository.CacheRepository
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, session revocation and rate limiting are disabled", "error", err)
	} else {
		defer redisClient.Close()
		repo, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			log.Fatal("Failed to initialize CacheRepo", "error", err)
		}
		cacheRepo = repo
		log.Info("Successfully connected to Redis", "mode", cfg.Redis.Mode)
	}

	// Репозитории
	userRepo := pgRepo.NewUserRepo(db)
	subjectRepo := pgRepo.NewSubjectRepo(db)
	chapterRepo := pgRepo.NewChapterRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	scoreRepo := pgRepo.NewScoreRepo(db)

	// Сессии
	jwtService, err := auth.NewJWTService(cfg.Auth.SecretKey, cacheRepo, log)
	if err != nil {
		log.Fatal("Failed to initialize JWTService", "error", err)
	}
	tokenManager := manager.NewTokenManager(jwtService, cfg.Auth.SessionTTL(), cfg.Auth.RememberTTL(), log)
	tokenManager.SetCookieAttributes("/", "", isProduction, http.SameSiteLaxMode)

	avatars, err := storage.NewAvatarStore(cfg.Upload, log)
	if err != nil {
		log.Fatal("Failed to initialize avatar storage", "error", err)
	}
	mailer := service.NewMailer(cfg.Email.ResendAPIKey, cfg.Email.From, log)

	// Сервисы
	authService := service.NewAuthService(userRepo, jwtService, avatars, mailer, time.Now, log)
	userService := service.NewUserService(userRepo, subjectRepo, quizRepo, questionRepo, avatars, log)
	profileService := service.NewProfileService(userRepo, avatars, log)
	subjectService := service.NewSubjectService(subjectRepo, log)
	chapterService := service.NewChapterService(chapterRepo, subjectRepo, log)
	quizService := service.NewQuizService(quizRepo, chapterRepo, loc, time.Now, log)
	questionService := service.NewQuestionService(questionRepo, quizRepo, log)
	attemptService := service.NewAttemptService(quizRepo, scoreRepo, time.Now, log)
	statsService := service.NewStatsService(quizRepo, scoreRepo, subjectRepo, log)
	searchService := service.NewSearchService(userRepo, subjectRepo, quizRepo, questionRepo, 0, log)

	// Шаблоны и обработчики
	templates, err := handler.LoadTemplates(cfg.App.TemplatesDir, loc)
	if err != nil {
		log.Fatal("Failed to load templates", "dir", cfg.App.TemplatesDir, "error", err)
	}
	render := handler.NewRenderer(loc, time.Now, log)

	// В production не доверяем прокси-заголовкам, в разработке доверяем localhost
	var trustedProxies []string
	if !isProduction {
		trustedProxies = []string{"127.0.0.1", "::1"}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Templates:      templates,
		CORSOrigins:    cfg.App.CORSOrigins,
		TrustedProxies: trustedProxies,
		MaxUploadSize:  cfg.Upload.MaxSize,
		Auth:           handler.NewAuthHandler(authService, tokenManager, render, log),
		Admin:          handler.NewAdminHandler(userService, subjectService, chapterService, quizService, questionService, statsService, render, log),
		User:           handler.NewUserHandler(quizService, subjectService, attemptService, statsService, render, log),
		Profile:        handler.NewProfileHandler(userService, profileService, avatars, render, log),
		Main:           handler.NewMainHandler(searchService, render),
		API:            handler.NewAPIHandler(searchService, statsService, loc, render, log),
		AuthMiddleware: middleware.NewAuthMiddleware(authService, tokenManager, log),
		RateLimiter:    middleware.NewRateLimiter(cacheRepo, log),
		Log:            log,
	})

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		return
	}

	log.Info("Server exited properly")
}
