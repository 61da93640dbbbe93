package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/clinicdesk/identity/internal/common"
	"github.com/go-playground/validator/v10"
)

type signupInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,maxbytes"`
	Name     string `json:"name" validate:"required,max=100"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyInput struct {
	Code string `json:"code" validate:"required"`
}

type forgotInput struct {
	Email string `json:"email" validate:"required,email"`
}

type resetInput struct {
	Password string `json:"password" validate:"required,maxbytes"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// bcrypt reads at most 72 bytes; "max" counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	return v
}

// validateInput returns an error wrapping common.ErrorValidation that names
// the first offending field.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", common.ErrorValidation, fe.Field())
	case "email":
		return fmt.Errorf("%w: %s is not a valid email address", common.ErrorValidation, fe.Field())
	case "maxbytes":
		return fmt.Errorf("%w: %s must be at most %d bytes", common.ErrorValidation, fe.Field(), maxPasswordBytes)
	case "max":
		return fmt.Errorf("%w: %s must be at most %s characters", common.ErrorValidation, fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", common.ErrorValidation, fe.Field())
	}
}
