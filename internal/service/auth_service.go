package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"gorm.io/datatypes"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/internal/storage"
	"github.com/yourusername/quiz-master/pkg/auth"
)

// welcomeMailTimeout ограничивает синхронную отправку приветственного письма
const welcomeMailTimeout = 5 * time.Second

// Сообщения, которые показываются пользователю как есть
const (
	msgDuplicateUser    = "User with this username or email already exists."
	msgInvalidLogin     = "Invalid username or password"
	msgInvalidAdmin     = "Invalid admin credentials."
	msgAvatarNotAllowed = "Images only!"
	msgAvatarTooLarge   = "File is too large."
)

// AvatarStorage сохраняет и удаляет файлы аватаров
type AvatarStorage interface {
	Save(file *multipart.FileHeader) (string, error)
	Delete(name string) bool
}

// RegisterInput данные формы регистрации
type RegisterInput struct {
	Username      string `form:"username" validate:"required,min=4,max=25"`
	Email         string `form:"email" validate:"required,email,max=120"`
	Password      string `form:"password" trim:"false" validate:"required,min=8,letters_digits"`
	Confirm       string `form:"confirm" trim:"false" validate:"required,eqfield=Password"`
	FullName      string `form:"full_name" validate:"required,min=2,max=50"`
	Qualification string `form:"qualification" validate:"max=100"`
	DOB           string `form:"dob" validate:"required,date"`
}

// LoginInput данные формы входа
type LoginInput struct {
	Username string `form:"username" validate:"required,min=4,max=25"`
	Password string `form:"password" trim:"false" validate:"required"`
	Remember bool   `form:"remember"`
}

// AuthService отвечает за регистрацию, вход и сессии
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	avatars    AvatarStorage
	mailer     Mailer
	now        Clock
	log        *logger.Logger
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	avatars AvatarStorage,
	mailer Mailer,
	now Clock,
	log *logger.Logger,
) *AuthService {
	if now == nil {
		now = time.Now
	}
	if mailer == nil {
		mailer = NewNoopMailer(log)
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		avatars:    avatars,
		mailer:     mailer,
		now:        now,
		log:        log.Component("AuthService"),
	}
}

// Register создает пользователя. Дубликат username/email дает apperrors.ErrConflict,
// при любой ошибке сохраненный аватар удаляется.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, avatar *multipart.FileHeader) (*entity.User, error) {
	trimAll(&in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	dob, _ := time.Parse(dateLayout, in.DOB)

	if taken, err := s.identityTaken(ctx, 0, in.Username, in.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, msgDuplicateUser)
	}

	avatarName, err := saveAvatar(s.avatars, avatar)
	if err != nil {
		return nil, err
	}

	date := datatypes.Date(dob)
	now := s.now()
	user := &entity.User{
		Username:      in.Username,
		Email:         in.Email,
		Password:      in.Password,
		FullName:      in.FullName,
		Qualification: in.Qualification,
		DOB:           &date,
		Avatar:        avatarName,
		IsActive:      true,
		CreatedAt:     now,
		LastSeen:      now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if avatarName != "" {
			s.avatars.Delete(avatarName)
		}
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, msgDuplicateUser)
		}
		s.log.Error("User registration failed", "username", in.Username, "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info("User registered", "user_id", user.ID)

	mailCtx, cancel := context.WithTimeout(ctx, welcomeMailTimeout)
	defer cancel()
	if err := s.mailer.SendWelcome(mailCtx, user.Email, user.FullName); err != nil {
		s.log.Warn("Welcome email failed", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// Login проверяет учетные данные и обновляет last_seen
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*entity.User, error) {
	user, err := s.authenticate(ctx, in, msgInvalidLogin)
	if err != nil {
		return nil, err
	}
	s.touch(ctx, user)
	return user, nil
}

// AdminLogin как Login, но допускает только администраторов
func (s *AuthService) AdminLogin(ctx context.Context, in LoginInput) (*entity.User, error) {
	user, err := s.authenticate(ctx, in, msgInvalidAdmin)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		s.log.Warn("Admin login by non-admin", "user_id", user.ID)
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, msgInvalidAdmin)
	}
	s.touch(ctx, user)
	return user, nil
}

// ResolveSession проверяет токен сессии и загружает пользователя.
// Удаленный или деактивированный пользователь дает apperrors.ErrUnauthorized.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*auth.SessionClaims, auth.Identity, error) {
	claims, err := s.jwtService.ParseToken(ctx, token)
	if err != nil {
		return nil, auth.Identity{}, err
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, auth.Identity{}, fmt.Errorf("%w: user no longer exists", apperrors.ErrUnauthorized)
		}
		return nil, auth.Identity{}, err
	}
	if !user.IsActive {
		return nil, auth.Identity{}, fmt.Errorf("%w: user is inactive", apperrors.ErrUnauthorized)
	}
	return claims, auth.Identity{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}, nil
}

// Logout отзывает сессию до истечения ее токена
func (s *AuthService) Logout(ctx context.Context, claims *auth.SessionClaims) error {
	if claims == nil {
		return nil
	}
	if err := s.jwtService.Revoke(ctx, claims); err != nil {
		s.log.Warn("Session revoke failed", "user_id", claims.UserID, "error", err)
		return err
	}
	return nil
}

func (s *AuthService) authenticate(ctx context.Context, in LoginInput, failure string) (*entity.User, error) {
	trimAll(&in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, failure)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.CheckPassword(in.Password) || !user.IsActive {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, failure)
	}
	return user, nil
}

func (s *AuthService) touch(ctx context.Context, user *entity.User) {
	now := s.now()
	if err := s.userRepo.UpdateLastSeen(ctx, user.ID, now); err != nil {
		s.log.Warn("Failed to update last_seen", "user_id", user.ID, "error", err)
		return
	}
	user.LastSeen = now
}

// identityTaken проверяет, заняты ли username или email другим пользователем
func (s *AuthService) identityTaken(ctx context.Context, selfID uint, username, email string) (bool, error) {
	return identityTaken(ctx, s.userRepo, selfID, username, email)
}

func identityTaken(ctx context.Context, repo repository.UserRepository, selfID uint, username, email string) (bool, error) {
	byName, err := repo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	if byName != nil && byName.ID != selfID {
		return true, nil
	}
	byEmail, err := repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return byEmail != nil && byEmail.ID != selfID, nil
}

// saveAvatar сохраняет файл, переводя ошибки хранилища в ошибку поля avatar
func saveAvatar(avatars AvatarStorage, file *multipart.FileHeader) (string, error) {
	if file == nil || avatars == nil {
		return "", nil
	}
	name, err := avatars.Save(file)
	switch {
	case err == nil:
		return name, nil
	case errors.Is(err, storage.ErrExtensionNotAllowed), errors.Is(err, storage.ErrInvalidFilename):
		return "", fieldError("avatar", msgAvatarNotAllowed)
	case errors.Is(err, storage.ErrFileTooLarge):
		return "", fieldError("avatar", msgAvatarTooLarge)
	default:
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
}
