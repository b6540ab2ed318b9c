package handler

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/handler/view"
	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/internal/middleware"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/internal/service"
	"github.com/yourusername/quiz-master/internal/storage"
)

const profilePath = "/profile"

var profileFields = []string{"username", "email", "full_name", "qualification", "dob", "bio", "location", "website"}

// ProfileHandler просмотр и редактирование профиля, раздача аватаров
type ProfileHandler struct {
	userService    *service.UserService
	profileService *service.ProfileService
	avatars        *storage.AvatarStore
	render         *Renderer
	log            *logger.Logger
}

// NewProfileHandler создает обработчик профиля
func NewProfileHandler(
	userService *service.UserService,
	profileService *service.ProfileService,
	avatars *storage.AvatarStore,
	render *Renderer,
	log *logger.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		userService:    userService,
		profileService: profileService,
		avatars:        avatars,
		render:         render,
		log:            log.Component("ProfileHandler"),
	}
}

// Profile GET /profile
func (h *ProfileHandler) Profile(c *gin.Context) {
	id, _ := middleware.Identity(c)
	user, err := h.userService.Get(c.Request.Context(), id.UserID)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "profile.html", view.Profile{Page: h.render.Page(c, "Profile"), Profile: user, IsOwn: true})
}

// PublicProfile GET /profile/:username
func (h *ProfileHandler) PublicProfile(c *gin.Context) {
	id, _ := middleware.Identity(c)
	user, err := h.userService.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "profile.html", view.Profile{
		Page:    h.render.Page(c, user.Username),
		Profile: user,
		IsOwn:   user.ID == id.UserID,
	})
}

// EditPage GET /profile/edit
func (h *ProfileHandler) EditPage(c *gin.Context) {
	id, _ := middleware.Identity(c)
	user, err := h.userService.Get(c.Request.Context(), id.UserID)
	if err != nil {
		h.render.Error(c, err)
		return
	}
	h.render.HTML(c, http.StatusOK, "profile_edit.html", view.ProfileEdit{
		Page:    h.render.Page(c, "Edit Profile"),
		Profile: user,
		Form:    profileForm(user),
	})
}

// Update POST /profile/edit
func (h *ProfileHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id, _ := middleware.Identity(c)

	var in service.ProfileInput
	if err := c.ShouldBind(&in); err != nil {
		h.render.Error(c, apperrors.ErrValidation)
		return
	}

	if _, err := h.profileService.Update(ctx, id.UserID, in, formFile(c, "avatar")); err != nil {
		form := formFrom(c, profileFields...)
		switch {
		case withErrors(&form, err):
		case errors.Is(err, apperrors.ErrConflict):
			h.render.AddFlash(c, view.FlashDanger, reason(err, apperrors.ErrConflict))
		default:
			h.render.Error(c, err)
			return
		}
		user, err := h.userService.Get(ctx, id.UserID)
		if err != nil {
			h.render.Error(c, err)
			return
		}
		h.render.HTML(c, http.StatusOK, "profile_edit.html", view.ProfileEdit{Page: h.render.Page(c, "Edit Profile"), Profile: user, Form: form})
		return
	}
	h.render.Redirect(c, profilePath, view.FlashSuccess, "Profile updated successfully!")
}

// Upload GET /uploads/:filename отдает сохраненный файл по имени
func (h *ProfileHandler) Upload(c *gin.Context) {
	path, err := h.avatars.Path(c.Param("filename"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "Not Found")
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		middleware.AbortWithError(c, http.StatusNotFound, "Not Found")
		return
	}
	c.File(path)
}

func profileForm(user *entity.User) view.Form {
	form := view.NewForm()
	form.Values["username"] = user.Username
	form.Values["email"] = user.Email
	form.Values["full_name"] = user.FullName
	form.Values["qualification"] = user.Qualification
	form.Values["bio"] = user.Bio
	form.Values["location"] = user.Location
	form.Values["website"] = user.Website
	if dob := user.DOBTime(); dob != nil {
		form.Values["dob"] = dob.Format("2006-01-02")
	}
	return form
}
