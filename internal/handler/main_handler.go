package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/handler/view"
	"github.com/yourusername/quiz-master/internal/middleware"
	"github.com/yourusername/quiz-master/internal/service"
)

// MainHandler главная страница и поиск
type MainHandler struct {
	searchService *service.SearchService
	render        *Renderer
}

// NewMainHandler создает обработчик главной страницы
func NewMainHandler(searchService *service.SearchService, render *Renderer) *MainHandler {
	return &MainHandler{searchService: searchService, render: render}
}

// Home GET /
func (h *MainHandler) Home(c *gin.Context) {
	h.render.HTML(c, http.StatusOK, "home.html", view.Home{Page: h.render.Page(c, "Quiz Master")})
}

// Search GET /search?q=
func (h *MainHandler) Search(c *gin.Context) {
	id, _ := middleware.Identity(c)
	results, err := h.searchService.Search(c.Request.Context(), id, c.Query("q"))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "search.html", view.Search{Page: h.render.Page(c, "Search"), Results: results})
}

// NoRoute отвечает 404 для неизвестных маршрутов
func (h *MainHandler) NoRoute(c *gin.Context) {
	if middleware.WantsJSON(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	}
	h.render.HTML(c, http.StatusNotFound, "message.html", view.Message{
		Page:    h.render.Page(c, "Not Found"),
		Status:  http.StatusNotFound,
		Message: "The page you are looking for does not exist.",
	})
}
