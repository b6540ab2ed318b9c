package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// dateLayout формат полей даты (input type="date")
const dateLayout = "2006-01-02"

// datetimeLayout формат полей datetime-local
const datetimeLayout = "2006-01-02T15:04"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Имена полей в ошибках совпадают с именами полей формы
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("letters_digits", lettersAndDigits)
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(dateLayout, fl.Field().String())
		return err == nil
	})
	return v
}

// lettersAndDigits: только латиница и цифры, хотя бы по одной букве и цифре
func lettersAndDigits(fl validator.FieldLevel) bool {
	var hasLetter, hasDigit bool
	for _, r := range fl.Field().String() {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			return false
		}
	}
	return hasLetter && hasDigit
}

// validateStruct проверяет структуру по тегам validate и возвращает *ValidationError
func validateStruct(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := NewValidationError()
	for _, fe := range verrs {
		ve.Add(fe.Field(), fieldMessage(fe))
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
		}
		return fmt.Sprintf("Value must be at least %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Value must be at most %s.", fe.Param())
	case "email":
		return "Invalid email format"
	case "url":
		return "Invalid URL."
	case "eqfield":
		return "Passwords must match"
	case "letters_digits":
		return "Must contain letters and numbers"
	case "date":
		return "Not a valid date value."
	case "alphanum":
		return "Only letters and digits are allowed."
	default:
		return "Invalid value."
	}
}

// trimAll обрезает пробелы во всех строковых полях структуры (кроме паролей)
func trimAll(ptr interface{}) {
	v := reflect.ValueOf(ptr).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.String || !f.CanSet() {
			continue
		}
		if t.Field(i).Tag.Get("trim") == "false" {
			continue
		}
		f.SetString(strings.TrimSpace(f.String()))
	}
}
