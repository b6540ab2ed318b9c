package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
)

// defaultSearchLimit ограничивает выдачу Search, если limit <= 0
const defaultSearchLimit = 50

// isUniqueViolation проверяет нарушение уникальности: gorm.ErrDuplicatedKey (TranslateError),
// Postgres 23505 от pgconn и lib/pq.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

// mapNotFound переводит gorm.ErrRecordNotFound в apperrors.ErrNotFound
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

// likeEscaper экранирует метасимволы LIKE; запросы используют ESCAPE '\'
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern строит шаблон подстрочного поиска без учета регистра (используется с LOWER(col))
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func searchLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	return limit
}
