package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/handler/dto"
	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/internal/middleware"
	"github.com/yourusername/quiz-master/internal/service"
)

// APIHandler JSON эндпоинты поиска и статистики
type APIHandler struct {
	searchService *service.SearchService
	statsService  *service.StatsService
	loc           *time.Location
	render        *Renderer
	log           *logger.Logger
}

// NewAPIHandler создает обработчик JSON API
func NewAPIHandler(searchService *service.SearchService, statsService *service.StatsService, loc *time.Location, render *Renderer, log *logger.Logger) *APIHandler {
	return &APIHandler{
		searchService: searchService,
		statsService:  statsService,
		loc:           loc,
		render:        render,
		log:           log.Component("APIHandler"),
	}
}

// Search GET /api/search?q=
func (h *APIHandler) Search(c *gin.Context) {
	id, _ := middleware.Identity(c)
	results, err := h.searchService.Search(c.Request.Context(), id, c.Query("q"))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSearchResponse(results))
}

// QuizAnalytics GET /stats/quiz_analytics
func (h *APIHandler) QuizAnalytics(c *gin.Context) {
	analytics, err := h.statsService.QuizAnalytics(c.Request.Context())
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuizAnalyticsResponse(analytics))
}

// QuestionStats GET /stats/question_stats/:quiz_id
func (h *APIHandler) QuestionStats(c *gin.Context) {
	stats, err := h.statsService.QuestionStats(c.Request.Context(), middleware.UintParam(c, "quizID"))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionStatsResponse(stats))
}

// UserPerformance GET /stats/user/performance
func (h *APIHandler) UserPerformance(c *gin.Context) {
	id, _ := middleware.Identity(c)
	perf, err := h.statsService.UserPerformance(c.Request.Context(), id.UserID)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserPerformanceResponse(perf, h.loc))
}
