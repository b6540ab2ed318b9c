package handler

import (
	"html/template"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/internal/middleware"
)

// RouterConfig зависимости и настройки HTTP роутера
type RouterConfig struct {
	Templates      *template.Template
	CORSOrigins    []string
	TrustedProxies []string
	MaxUploadSize  int64

	Auth    *AuthHandler
	Admin   *AdminHandler
	User    *UserHandler
	Profile *ProfileHandler
	Main    *MainHandler
	API     *APIHandler

	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
	Log            *logger.Logger
}

// NewRouter собирает gin.Engine со всеми маршрутами приложения
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log.Component("Router")
	router := gin.New()
	router.SetHTMLTemplate(cfg.Templates)
	if cfg.MaxUploadSize > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadSize
	}
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", "error", err)
	}

	router.Use(middleware.Recovery(cfg.Log), middleware.RequestLogger(cfg.Log))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-CSRF-Token"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	am := cfg.AuthMiddleware
	router.Use(middleware.LimitBody(cfg.MaxUploadSize), am.LoadSession(), am.RequireCSRF())
	router.NoRoute(cfg.Main.NoRoute)

	withID := middleware.ExtractUintParam("id", idKey)
	authLimit := cfg.RateLimiter.Limit(middleware.StrictAuthRateLimitConfig())

	router.GET("/", cfg.Main.Home)
	router.GET("/search", cfg.Main.Search)

	router.GET("/register", cfg.Auth.RegisterPage)
	router.POST("/register", authLimit, cfg.Auth.Register)
	router.GET("/login", cfg.Auth.LoginPage)
	router.POST("/login", authLimit, cfg.Auth.Login)
	router.GET("/admin/login", cfg.Auth.AdminLoginPage)
	router.POST("/admin/login", authLimit, cfg.Auth.AdminLogin)
	router.POST("/logout", am.RequireLogin(), cfg.Auth.Logout)

	admin := router.Group("/admin")
	admin.Use(am.AdminOnly())
	{
		admin.GET("/dashboard", cfg.Admin.Dashboard)
		admin.GET("/users", cfg.Admin.Users)
		admin.POST("/users/:id/delete", withID, cfg.Admin.DeleteUser)

		admin.GET("/subjects", cfg.Admin.Subjects)
		admin.POST("/subjects", cfg.Admin.CreateSubject)
		subject := admin.Group("/subjects/:id", withID)
		{
			subject.GET("/edit", cfg.Admin.EditSubjectPage)
			subject.POST("/edit", cfg.Admin.UpdateSubject)
			subject.POST("/delete", cfg.Admin.DeleteSubject)
			subject.GET("/chapters", cfg.Admin.Chapters)
			subject.POST("/chapters", cfg.Admin.CreateChapter)
		}

		chapter := admin.Group("/chapters/:id", withID)
		{
			chapter.GET("/edit", cfg.Admin.EditChapterPage)
			chapter.POST("/edit", cfg.Admin.UpdateChapter)
			chapter.POST("/delete", cfg.Admin.DeleteChapter)
			chapter.GET("/quizzes", cfg.Admin.Quizzes)
			chapter.GET("/quizzes/new", cfg.Admin.NewQuizPage)
			chapter.POST("/quizzes/new", cfg.Admin.CreateQuiz)
		}

		quiz := admin.Group("/quizzes/:id", withID)
		{
			quiz.GET("/edit", cfg.Admin.EditQuizPage)
			quiz.POST("/edit", cfg.Admin.UpdateQuiz)
			quiz.POST("/delete", cfg.Admin.DeleteQuiz)
			quiz.GET("/questions", cfg.Admin.Questions)
			quiz.POST("/questions", cfg.Admin.CreateQuestion)
			quiz.GET("/attempts", cfg.Admin.QuizAttempts)
			quiz.GET("/export", cfg.Admin.ExportAttempts)
		}

		question := admin.Group("/questions/:id", withID)
		{
			question.GET("/edit", cfg.Admin.EditQuestionPage)
			question.POST("/edit", cfg.Admin.UpdateQuestion)
			question.POST("/delete", cfg.Admin.DeleteQuestion)
		}

		admin.GET("/attempts", cfg.Admin.Attempts)
		admin.GET("/attempts/:id", withID, cfg.Admin.AttemptDetails)
	}

	user := router.Group("/user")
	user.Use(am.RequireLogin())
	{
		user.GET("/dashboard", cfg.User.Dashboard)
		user.GET("/quiz/:id/attempt", withID, cfg.User.AttemptPage)
		user.POST("/quiz/:id/attempt", withID, cfg.User.SubmitAttempt)
		user.GET("/quiz/:id/results", withID, cfg.User.Results)
		user.GET("/summary", cfg.User.Summary)
		user.GET("/attempt-history", cfg.User.AttemptHistory)
		user.GET("/scores", cfg.User.Scores)
	}

	loggedIn := router.Group("")
	loggedIn.Use(am.RequireLogin())
	{
		loggedIn.GET("/profile", cfg.Profile.Profile)
		loggedIn.GET("/profile/edit", cfg.Profile.EditPage)
		loggedIn.POST("/profile/edit", cfg.Profile.Update)
		loggedIn.GET("/profile/:username", cfg.Profile.PublicProfile)
		loggedIn.GET("/uploads/:filename", cfg.Profile.Upload)
	}

	api := router.Group("/api")
	api.Use(am.RequireLogin())
	{
		api.GET("/search", cfg.RateLimiter.Limit(middleware.SearchRateLimitConfig()), cfg.API.Search)
	}

	stats := router.Group("/stats")
	stats.Use(am.RequireLogin())
	{
		stats.GET("/user/performance", cfg.API.UserPerformance)
		stats.GET("/quiz_analytics", am.AdminOnly(), cfg.API.QuizAnalytics)
		stats.GET("/question_stats/:quiz_id", am.AdminOnly(), middleware.ExtractUintParam("quiz_id", "quizID"), cfg.API.QuestionStats)
	}

	return router
}
