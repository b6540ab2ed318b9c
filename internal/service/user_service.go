package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
)

// DashboardCounts счетчики для панели администратора
type DashboardCounts struct {
	Users     int64
	Subjects  int64
	Quizzes   int64
	Questions int64
}

// UserService предоставляет методы для работы с пользователями
type UserService struct {
	userRepo     repository.UserRepository
	subjectRepo  repository.SubjectRepository
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	avatars      AvatarStorage
	log          *logger.Logger
}

// NewUserService создает новый сервис пользователей
func NewUserService(
	userRepo repository.UserRepository,
	subjectRepo repository.SubjectRepository,
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	avatars AvatarStorage,
	log *logger.Logger,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		subjectRepo:  subjectRepo,
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		avatars:      avatars,
		log:          log.Component("UserService"),
	}
}

// List возвращает всех пользователей
func (s *UserService) List(ctx context.Context) ([]entity.User, error) {
	return s.userRepo.List(ctx)
}

// Get возвращает пользователя по ID
func (s *UserService) Get(ctx context.Context, id uint) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetByUsername возвращает пользователя по имени
func (s *UserService) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

// Delete удаляет пользователя вместе с результатами. Администраторов удалять нельзя.
func (s *UserService) Delete(ctx context.Context, id uint) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin {
		return nil, fmt.Errorf("%w: administrators cannot be deleted", apperrors.ErrForbidden)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		s.log.Error("Failed to delete user", "user_id", id, "error", err)
		return nil, err
	}
	if user.Avatar != "" && s.avatars != nil {
		s.avatars.Delete(user.Avatar)
	}
	s.log.Info("User deleted", "user_id", id)
	return user, nil
}

// AdminSeed учетные данные администратора по умолчанию
type AdminSeed struct {
	Username string
	Email    string
	Password string
	FullName string
}

// EnsureAdmin создает администратора, если в системе еще нет ни одного.
// Возвращает true, если администратор был создан.
func (s *UserService) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return false, err
	}
	for i := range users {
		if users[i].IsAdmin {
			return false, nil
		}
	}

	if seed.FullName == "" {
		seed.FullName = "System Admin"
	}
	admin := &entity.User{
		Username: strings.TrimSpace(seed.Username),
		Email:    strings.ToLower(strings.TrimSpace(seed.Email)),
		Password: seed.Password,
		FullName: seed.FullName,
		IsAdmin:  true,
		IsActive: true,
	}
	if admin.Username == "" || admin.Password == "" {
		return false, fmt.Errorf("%w: admin username and password are required", apperrors.ErrValidation)
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, err
	}
	s.log.Info("Admin user created", "user_id", admin.ID, "username", admin.Username)
	return true, nil
}

// DashboardCounts считает сущности для панели администратора
func (s *UserService) DashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	var (
		counts DashboardCounts
		err    error
	)
	if counts.Users, err = s.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if counts.Subjects, err = s.subjectRepo.Count(ctx); err != nil {
		return nil, err
	}
	if counts.Quizzes, err = s.quizRepo.Count(ctx); err != nil {
		return nil, err
	}
	if counts.Questions, err = s.questionRepo.Count(ctx); err != nil {
		return nil, err
	}
	return &counts, nil
}

// ProfileInput данные формы редактирования профиля.
// Пустое поле оставляет текущее значение.
type ProfileInput struct {
	Username      string `form:"username" validate:"omitempty,min=4,max=25"`
	Email         string `form:"email" validate:"omitempty,email,max=120"`
	FullName      string `form:"full_name" validate:"omitempty,min=2,max=50"`
	Qualification string `form:"qualification" validate:"max=100"`
	DOB           string `form:"dob" validate:"omitempty,date"`
	Bio           string `form:"bio" validate:"max=1000"`
	Location      string `form:"location" validate:"max=100"`
	Website       string `form:"website" validate:"omitempty,url,max=200"`
	RemoveAvatar  bool   `form:"remove_avatar"`
}

// ProfileService редактирование собственного профиля
type ProfileService struct {
	userRepo repository.UserRepository
	avatars  AvatarStorage
	log      *logger.Logger
}

// NewProfileService создает новый сервис профиля
func NewProfileService(userRepo repository.UserRepository, avatars AvatarStorage, log *logger.Logger) *ProfileService {
	return &ProfileService{
		userRepo: userRepo,
		avatars:  avatars,
		log:      log.Component("ProfileService"),
	}
}

// Update применяет форму к профилю пользователя userID.
// Старый аватар удаляется только после успешного сохранения.
func (s *ProfileService) Update(ctx context.Context, userID uint, in ProfileInput, avatar *multipart.FileHeader) (*entity.User, error) {
	trimAll(&in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	username := valueOr(in.Username, user.Username)
	email := valueOr(in.Email, user.Email)
	if !strings.EqualFold(username, user.Username) || !strings.EqualFold(email, user.Email) {
		taken, err := identityTaken(ctx, s.userRepo, user.ID, username, email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, "Username or email already taken.")
		}
	}

	user.Username = username
	user.Email = email
	user.FullName = valueOr(in.FullName, user.FullName)
	user.Qualification = valueOr(in.Qualification, user.Qualification)
	user.Bio = valueOr(in.Bio, user.Bio)
	user.Location = valueOr(in.Location, user.Location)
	user.Website = valueOr(in.Website, user.Website)
	if in.DOB != "" {
		dob, _ := time.Parse(dateLayout, in.DOB)
		date := datatypes.Date(dob)
		user.DOB = &date
	}

	oldAvatar := user.Avatar
	newAvatar, err := saveAvatar(s.avatars, avatar)
	if err != nil {
		return nil, err
	}
	switch {
	case newAvatar != "":
		user.Avatar = newAvatar
	case in.RemoveAvatar:
		user.Avatar = ""
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if newAvatar != "" {
			s.avatars.Delete(newAvatar)
		}
		s.log.Error("Profile update failed", "user_id", user.ID, "error", err)
		return nil, err
	}
	if oldAvatar != "" && oldAvatar != user.Avatar {
		s.avatars.Delete(oldAvatar)
	}
	s.log.Info("Profile updated", "user_id", user.ID)
	return user, nil
}

func valueOr(v, current string) string {
	if v == "" {
		return current
	}
	return v
}
