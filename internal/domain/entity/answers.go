package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ErrInvalidAnswers возвращается, если сохраненные ответы не проходят проверку при чтении.
var ErrInvalidAnswers = errors.New("invalid stored answers")

// Answers сопоставляет ID вопроса с выбранным вариантом (1..4).
// В базе хранится как JSON-объект {"<question_id>": <option>}.
type Answers map[uint]int

// Scan реализует sql.Scanner. Ключи должны быть положительными целыми,
// значения целыми в диапазоне 1..4, иначе возвращается ErrInvalidAnswers.
func (a *Answers) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*a = Answers{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidAnswers, value)
	}
	if len(data) == 0 {
		*a = Answers{}
		return nil
	}

	raw := map[string]json.Number{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}

	out := make(Answers, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("%w: bad question id %q", ErrInvalidAnswers, k)
		}
		opt, err := strconv.Atoi(v.String())
		if err != nil || !IsValidOption(opt) {
			return fmt.Errorf("%w: bad option %q for question %d", ErrInvalidAnswers, v.String(), id)
		}
		out[uint(id)] = opt
	}
	*a = out
	return nil
}

// Value реализует driver.Valuer
func (a Answers) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(map[uint]int(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDBDataType выбирает тип колонки под диалект: JSONB в Postgres, TEXT в остальных.
func (Answers) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "TEXT"
}

// Sanitize оставляет только ответы на вопросы викторины с номером варианта 1..4.
func (a Answers) Sanitize(questions []Question) Answers {
	known := make(map[uint]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	out := make(Answers, len(a))
	for id, opt := range a {
		if _, ok := known[id]; !ok || !IsValidOption(opt) {
			continue
		}
		out[id] = opt
	}
	return out
}

// Selected возвращает выбранный вариант для вопроса и признак наличия ответа.
func (a Answers) Selected(questionID uint) (int, bool) {
	opt, ok := a[questionID]
	return opt, ok
}
