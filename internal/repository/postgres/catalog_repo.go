package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quiz-master/internal/domain/entity"
)

// SubjectRepo реализует repository.SubjectRepository
type SubjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo создает новый репозиторий предметов
func NewSubjectRepo(db *gorm.DB) *SubjectRepo {
	return &SubjectRepo{db: db}
}

func (r *SubjectRepo) Create(ctx context.Context, subject *entity.Subject) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(subject).Error
}

func (r *SubjectRepo) GetByID(ctx context.Context, id uint) (*entity.Subject, error) {
	var subject entity.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &subject, nil
}

// GetByName ищет предмет по имени без учета регистра
func (r *SubjectRepo) GetByName(ctx context.Context, name string) (*entity.Subject, error) {
	var subject entity.Subject
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&subject).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &subject, nil
}

// List возвращает предметы вместе с главами (для дашборда администратора)
func (r *SubjectRepo) List(ctx context.Context) ([]entity.Subject, error) {
	var subjects []entity.Subject
	err := r.db.WithContext(ctx).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("chapters.id") }).
		Order("id").
		Find(&subjects).Error
	return subjects, err
}

func (r *SubjectRepo) Update(ctx context.Context, subject *entity.Subject) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(subject).Error
}

// Delete удаляет предмет со всеми потомками в одной транзакции
func (r *SubjectRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subject entity.Subject
		if err := tx.Select("id").First(&subject, id).Error; err != nil {
			return mapNotFound(err)
		}
		var chapterIDs []uint
		if err := tx.Model(&entity.Chapter{}).Where("subject_id = ?", id).Pluck("id", &chapterIDs).Error; err != nil {
			return err
		}
		if err := deleteChaptersTx(tx, chapterIDs); err != nil {
			return err
		}
		return tx.Delete(&entity.Subject{}, id).Error
	})
}

func (r *SubjectRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Subject{}).Count(&total).Error
	return total, err
}

func (r *SubjectRepo) Search(ctx context.Context, term string, limit int) ([]entity.Subject, error) {
	var subjects []entity.Subject
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(term)).
		Order("name").
		Limit(searchLimit(limit)).
		Find(&subjects).Error
	return subjects, err
}

// ChapterRepo реализует repository.ChapterRepository
type ChapterRepo struct {
	db *gorm.DB
}

// NewChapterRepo создает новый репозиторий глав
func NewChapterRepo(db *gorm.DB) *ChapterRepo {
	return &ChapterRepo{db: db}
}

func (r *ChapterRepo) Create(ctx context.Context, chapter *entity.Chapter) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(chapter).Error
}

func (r *ChapterRepo) GetByID(ctx context.Context, id uint) (*entity.Chapter, error) {
	var chapter entity.Chapter
	if err := r.db.WithContext(ctx).Preload("Subject").First(&chapter, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &chapter, nil
}

func (r *ChapterRepo) ListBySubject(ctx context.Context, subjectID uint) ([]entity.Chapter, error) {
	var chapters []entity.Chapter
	err := r.db.WithContext(ctx).
		Preload("Quizzes", func(db *gorm.DB) *gorm.DB { return db.Order("quizzes.start_time") }).
		Where("subject_id = ?", subjectID).
		Order("id").
		Find(&chapters).Error
	return chapters, err
}

func (r *ChapterRepo) Update(ctx context.Context, chapter *entity.Chapter) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(chapter).Error
}

func (r *ChapterRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chapter entity.Chapter
		if err := tx.Select("id").First(&chapter, id).Error; err != nil {
			return mapNotFound(err)
		}
		return deleteChaptersTx(tx, []uint{id})
	})
}
