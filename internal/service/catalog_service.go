package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
)

// SubjectInput данные формы предмета
type SubjectInput struct {
	Name        string `form:"name" validate:"required,min=2,max=100"`
	Description string `form:"description" validate:"max=500"`
}

// ChapterInput данные формы главы
type ChapterInput struct {
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description" validate:"max=500"`
}

// SubjectService предоставляет методы для работы с предметами
type SubjectService struct {
	subjectRepo repository.SubjectRepository
	log         *logger.Logger
}

// NewSubjectService создает новый сервис предметов
func NewSubjectService(subjectRepo repository.SubjectRepository, log *logger.Logger) *SubjectService {
	return &SubjectService{subjectRepo: subjectRepo, log: log.Component("SubjectService")}
}

// List возвращает все предметы с главами
func (s *SubjectService) List(ctx context.Context) ([]entity.Subject, error) {
	return s.subjectRepo.List(ctx)
}

// Get возвращает предмет по ID
func (s *SubjectService) Get(ctx context.Context, id uint) (*entity.Subject, error) {
	return s.subjectRepo.GetByID(ctx, id)
}

// Create создает предмет. Имя должно быть уникальным без учета регистра.
func (s *SubjectService) Create(ctx context.Context, in SubjectInput) (*entity.Subject, error) {
	trimAll(&in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	existing, err := s.subjectRepo.GetByName(ctx, in.Name)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check subject name: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: Subject already exists!", apperrors.ErrConflict)
	}

	subject := &entity.Subject{Name: in.Name, Description: in.Description}
	if err := s.subjectRepo.Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	s.log.Info("Subject created", "subject_id", subject.ID)
	return subject, nil
}

// Update изменяет имя и описание предмета
func (s *SubjectService) Update(ctx context.Context, id uint, in SubjectInput) (*entity.Subject, error) {
	trimAll(&in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	subject, err := s.subjectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing, err := s.subjectRepo.GetByName(ctx, in.Name)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check subject name: %w", err)
	}
	if existing != nil && existing.ID != subject.ID {
		return nil, fmt.Errorf("%w: Subject already exists!", apperrors.ErrConflict)
	}

	subject.Name = in.Name
	subject.Description = in.Description
	if err := s.subjectRepo.Update(ctx, subject); err != nil {
		return nil, fmt.Errorf("failed to update subject: %w", err)
	}
	return subject, nil
}

// Delete удаляет предмет каскадно
func (s *SubjectService) Delete(ctx context.Context, id uint) error {
	if err := s.subjectRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		s.log.Error("Subject delete failed", "subject_id", id, "error", err)
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	s.log.Info("Subject deleted", "subject_id", id)
	return nil
}

// ChapterService предоставляет методы для работы с главами
type ChapterService struct {
	chapterRepo repository.ChapterRepository
	subjectRepo repository.SubjectRepository
	log         *logger.Logger
}

// NewChapterService создает новый сервис глав
func NewChapterService(chapterRepo repository.ChapterRepository, subjectRepo repository.SubjectRepository, log *logger.Logger) *ChapterService {
	return &ChapterService{chapterRepo: chapterRepo, subjectRepo: subjectRepo, log: log.Component("ChapterService")}
}

// ListBySubject возвращает предмет и его главы. Неизвестный предмет дает ErrNotFound.
func (s *ChapterService) ListBySubject(ctx context.Context, subjectID uint) (*entity.Subject, []entity.Chapter, error) {
	subject, err := s.subjectRepo.GetByID(ctx, subjectID)
	if err != nil {
		return nil, nil, err
	}
	chapters, err := s.chapterRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return subject, chapters, nil
}

// Get возвращает главу с предметом
func (s *ChapterService) Get(ctx context.Context, id uint) (*entity.Chapter, error) {
	return s.chapterRepo.GetByID(ctx, id)
}

// Create добавляет главу в предмет
func (s *ChapterService) Create(ctx context.Context, subjectID uint, in ChapterInput) (*entity.Chapter, error) {
	trimAll(&in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.subjectRepo.GetByID(ctx, subjectID); err != nil {
		return nil, err
	}

	chapter := &entity.Chapter{Name: in.Name, Description: in.Description, SubjectID: subjectID}
	if err := s.chapterRepo.Create(ctx, chapter); err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}
	s.log.Info("Chapter created", "chapter_id", chapter.ID, "subject_id", subjectID)
	return chapter, nil
}

// Update изменяет главу
func (s *ChapterService) Update(ctx context.Context, id uint, in ChapterInput) (*entity.Chapter, error) {
	trimAll(&in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	chapter, err := s.chapterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chapter.Name = in.Name
	chapter.Description = in.Description
	if err := s.chapterRepo.Update(ctx, chapter); err != nil {
		return nil, fmt.Errorf("failed to update chapter: %w", err)
	}
	return chapter, nil
}

// Delete удаляет главу каскадно и возвращает удаленную главу (для редиректа к предмету)
func (s *ChapterService) Delete(ctx context.Context, id uint) (*entity.Chapter, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.chapterRepo.Delete(ctx, id); err != nil {
		s.log.Error("Chapter delete failed", "chapter_id", id, "error", err)
		return nil, fmt.Errorf("failed to delete chapter: %w", err)
	}
	s.log.Info("Chapter deleted", "chapter_id", id)
	return chapter, nil
}
