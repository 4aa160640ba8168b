package gateway

import (
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/incident_response_system/internal/apperrors"
	"github.com/shenikar/incident_response_system/internal/models"
)

// NewValidator возвращает валидатор со схемами входов и выходов модели
func NewValidator() *validator.Validate {
	v := validator.New()
	// Ошибка регистрации возможна только при пустом теге
	_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseSeverity(fl.Field().String())
		return ok
	})
	return v
}

// Validate проверяет структуру и помечает ошибку как Validation
func Validate(v *validator.Validate, capability Capability, s any) error {
	if err := v.Struct(s); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "gateway."+string(capability), err)
	}
	return nil
}
