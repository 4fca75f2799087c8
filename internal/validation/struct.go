package validation

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// имена полей в ошибках берем из json тега, чтобы клиент видел "identifier", а не "Identifier"
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(field.Name)
		}
		return name
	})

	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return ValidateIdentifier(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("secret", func(fl validator.FieldLevel) bool {
		return ValidateSecret(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("login_identifier", func(fl validator.FieldLevel) bool {
		return ValidateLoginIdentifier(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("login_secret", func(fl validator.FieldLevel) bool {
		return ValidateLoginSecret(fl.Field().String()) == nil
	})

	return v
}

// Errors содержит ошибки валидации по полям (field -> message)
type Errors map[string]string

// Error реализует интерфейс error
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// loginCredentials - форма запроса на вход: только наличие полей и верхние границы длины
type loginCredentials struct {
	Identifier string `json:"identifier" validate:"required,login_identifier"`
	Secret     string `json:"secret" validate:"required,login_secret"`
}

// Login проверяет форму пары identifier/secret для входа
func Login(identifier, secret string) error {
	return Struct(loginCredentials{Identifier: identifier, Secret: secret})
}

// Struct валидирует структуру по тегам validate и возвращает Errors
// с сообщением для каждого невалидного поля
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	result := make(Errors, len(validationErrs))
	for _, fe := range validationErrs {
		result[fieldPath(fe)] = message(fe)
	}
	return result
}

// fieldPath возвращает путь к полю без имени корневой структуры
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.IndexByte(ns, '.'); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	value, _ := fe.Value().(string)

	switch fe.Tag() {
	case "required":
		return "is required"
	case "identifier":
		if err := ValidateIdentifier(value); err != nil {
			return err.Error()
		}
	case "secret":
		if err := ValidateSecret(value); err != nil {
			return err.Error()
		}
	case "login_identifier":
		if err := ValidateLoginIdentifier(value); err != nil {
			return err.Error()
		}
	case "login_secret":
		if err := ValidateLoginSecret(value); err != nil {
			return err.Error()
		}
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "failed on the '" + fe.Tag() + "' rule"
}
