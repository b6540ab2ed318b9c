package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/quiz-master/internal/domain/entity"
)

// Каскадное удаление выполняется явно внутри транзакции, чтобы не зависеть
// от ON DELETE CASCADE конкретного диалекта. Любая ошибка откатывает все удаление.

// deleteQuizzesTx удаляет викторины вместе с вопросами, результатами и попытками
func deleteQuizzesTx(tx *gorm.DB, quizIDs []uint) error {
	if len(quizIDs) == 0 {
		return nil
	}
	if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&entity.Question{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&entity.Score{}).Error; err != nil {
		return err
	}
	if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&entity.QuizAttempt{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", quizIDs).Delete(&entity.Quiz{}).Error
}

// deleteChaptersTx удаляет главы вместе со всеми викторинами
func deleteChaptersTx(tx *gorm.DB, chapterIDs []uint) error {
	if len(chapterIDs) == 0 {
		return nil
	}
	var quizIDs []uint
	if err := tx.Model(&entity.Quiz{}).Where("chapter_id IN ?", chapterIDs).Pluck("id", &quizIDs).Error; err != nil {
		return err
	}
	if err := deleteQuizzesTx(tx, quizIDs); err != nil {
		return err
	}
	return tx.Where("id IN ?", chapterIDs).Delete(&entity.Chapter{}).Error
}
