package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/handler/view"
	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/internal/middleware"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/internal/service"
	"github.com/yourusername/quiz-master/pkg/auth"
	"github.com/yourusername/quiz-master/pkg/auth/manager"
)

var registerFields = []string{"username", "email", "full_name", "qualification", "dob"}

// AuthHandler обрабатывает регистрацию, вход и выход
type AuthHandler struct {
	authService  *service.AuthService
	tokenManager *manager.TokenManager
	render       *Renderer
	log          *logger.Logger
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService, tokenManager *manager.TokenManager, render *Renderer, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenManager: tokenManager,
		render:       render,
		log:          log.Component("AuthHandler"),
	}
}

// RegisterPage GET /register
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	if id, ok := middleware.Identity(c); ok {
		c.Redirect(http.StatusFound, dashboardPath(id))
		return
	}
	h.render.HTML(c, http.StatusOK, "register.html", view.Register{Page: h.render.Page(c, "Register"), Form: view.NewForm()})
}

// Register POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		h.render.Error(c, apperrors.ErrValidation)
		return
	}

	_, err := h.authService.Register(c.Request.Context(), in, formFile(c, "avatar"))
	if err != nil {
		form := formFrom(c, registerFields...)
		switch {
		case withErrors(&form, err):
		case errors.Is(err, apperrors.ErrConflict):
			h.render.AddFlash(c, view.FlashDanger, reason(err, apperrors.ErrConflict))
		default:
			h.render.Error(c, err)
			return
		}
		h.render.HTML(c, http.StatusOK, "register.html", view.Register{Page: h.render.Page(c, "Register"), Form: form})
		return
	}
	h.render.Redirect(c, middleware.LoginPath, view.FlashSuccess, "Registration successful! Please log in.")
}

// LoginPage GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	h.loginPage(c, false)
}

// AdminLoginPage GET /admin/login
func (h *AuthHandler) AdminLoginPage(c *gin.Context) {
	h.loginPage(c, true)
}

// Login POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	h.login(c, false)
}

// AdminLogin POST /admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	h.login(c, true)
}

// Logout POST /logout: отзывает сессию и удаляет cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims, ok := middleware.SessionClaims(c); ok {
		// Ошибка отзыва не мешает выходу: cookie удаляются в любом случае
		_ = h.authService.Logout(c.Request.Context(), claims)
	}
	h.tokenManager.ClearSessionCookies(c.Writer)
	h.render.Redirect(c, "/", view.FlashInfo, "You have been logged out.")
}

func (h *AuthHandler) loginPage(c *gin.Context, admin bool) {
	if id, ok := middleware.Identity(c); ok && (!admin || id.IsAdmin) {
		c.Redirect(http.StatusFound, dashboardPath(id))
		return
	}
	h.render.HTML(c, http.StatusOK, "login.html", h.loginView(c, admin, view.NewForm(), c.Query("next")))
}

func (h *AuthHandler) login(c *gin.Context, admin bool) {
	var in service.LoginInput
	if err := c.ShouldBind(&in); err != nil {
		h.render.Error(c, apperrors.ErrValidation)
		return
	}
	next := c.PostForm("next")

	ctx := c.Request.Context()
	authenticate := h.authService.Login
	if admin {
		authenticate = h.authService.AdminLogin
	}
	user, err := authenticate(ctx, in)
	if err != nil {
		form := formFrom(c, "username")
		switch {
		case withErrors(&form, err):
		case errors.Is(err, apperrors.ErrUnauthorized):
			h.render.AddFlash(c, view.FlashDanger, reason(err, apperrors.ErrUnauthorized))
		default:
			h.render.Error(c, err)
			return
		}
		h.render.HTML(c, http.StatusOK, "login.html", h.loginView(c, admin, form, next))
		return
	}

	if _, err := h.tokenManager.IssueSession(c.Writer, user, in.Remember); err != nil {
		h.render.Error(c, err)
		return
	}
	h.log.Info("User logged in", "user_id", user.ID, "admin", admin)

	target := dashboardPath(auth.Identity{UserID: user.ID, IsAdmin: user.IsAdmin})
	if !admin && safeNext(next) {
		target = next
	}
	if admin {
		h.render.Redirect(c, target, view.FlashSuccess, "Admin logged in successfully!")
		return
	}
	h.render.Redirect(c, target, view.FlashSuccess, "Login successful!")
}

func (h *AuthHandler) loginView(c *gin.Context, admin bool, form view.Form, next string) view.Login {
	title, action := "Login", middleware.LoginPath
	if admin {
		title, action = "Admin Login", middleware.AdminLoginPath
	}
	if !safeNext(next) {
		next = ""
	}
	return view.Login{Page: h.render.Page(c, title), Form: form, Action: action, Admin: admin, Next: next}
}

// dashboardPath стартовая страница пользователя
func dashboardPath(id auth.Identity) string {
	if id.IsAdmin {
		return "/admin/dashboard"
	}
	return "/user/dashboard"
}

// safeNext допускает только локальные пути, чтобы next не уводил на чужой сайт
func safeNext(next string) bool {
	return strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\")
}

// formFile возвращает загруженный файл или nil, если поле пустое
func formFile(c *gin.Context, field string) *multipart.FileHeader {
	file, err := c.FormFile(field)
	if err != nil || file == nil || file.Filename == "" {
		return nil
	}
	return file
}
