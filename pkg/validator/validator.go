package validator

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// slotDateLayout is the DD_MM_YYYY wire format used for appointment slots
const slotDateLayout = "02_01_2006"

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()

	// slot_date validates the DD_MM_YYYY date labels used for slots
	v.RegisterValidation("slot_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(slotDateLayout, fl.Field().String())
		return err == nil
	})

	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "uuid":
				errors[field] = field + " must be a valid UUID"
			case "slot_date":
				errors[field] = field + " must be a DD_MM_YYYY date"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
