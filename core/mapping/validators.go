package mapping

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/curriculum/core"
)

var (
	levelTag  = "level"
	levelText = fmt.Sprintf("mapping value must be between %d and %d", NoCorrelation, High)

	poColTag  = "pocol"
	poColText = fmt.Sprintf("PO ordinal must be between 1 and %d", POCount)

	psoColTag  = "psocol"
	psoColText = fmt.Sprintf("PSO ordinal must be between 1 and %d", PSOCount)
)

// InitValidators registers the mapping validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(levelTag, levelValidation)
	core.RegisterCustomTranslation(validate, translator, levelTag, levelText)

	_ = validate.RegisterValidation(poColTag, axisValidation(POAxis))
	core.RegisterCustomTranslation(validate, translator, poColTag, poColText)

	_ = validate.RegisterValidation(psoColTag, axisValidation(PSOAxis))
	core.RegisterCustomTranslation(validate, translator, psoColTag, psoColText)
}

// Custom Validators

func levelValidation(fl validator.FieldLevel) bool {
	if lvl, ok := fl.Field().Interface().(Level); ok {
		return lvl.Valid()
	}
	return false
}

func axisValidation(axis Axis) validator.Func {
	return func(fl validator.FieldLevel) bool {
		if col, ok := fl.Field().Interface().(int); ok {
			return axis.Contains(col)
		}
		return false
	}
}
