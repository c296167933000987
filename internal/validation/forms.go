package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LoginForm is the payload of the login page.
type LoginForm struct {
	Email    string `form:"email" validate:"required,emailshape"`
	Password string `form:"password" validate:"required"`
}

// RegisterForm is the payload of the registration page.
type RegisterForm struct {
	Name            string `form:"name" validate:"required,namelen"`
	Email           string `form:"email" validate:"required,emailshape"`
	Password        string `form:"password" validate:"required,passwordlen"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

// FieldErrors maps a form field name to the translation key of its error.
type FieldErrors map[string]string

// Empty reports whether no field failed.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// messageKeys maps field and failing rule to a translation key.
var messageKeys = map[string]map[string]string{
	"name": {
		"required": "auth.validation.nameRequired",
		"namelen":  "auth.validation.nameMinLength",
	},
	"email": {
		"required":   "auth.validation.emailRequired",
		"emailshape": "auth.validation.emailInvalid",
	},
	"password": {
		"required":    "auth.validation.passwordRequired",
		"passwordlen": "auth.validation.passwordMinLength",
	},
	"confirmPassword": {
		"required": "auth.validation.confirmPasswordRequired",
		"eqfield":  "auth.validation.passwordsMatch",
	},
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	mustRegister(v, "emailshape", func(fl validator.FieldLevel) bool { return IsEmail(fl.Field().String()) })
	mustRegister(v, "passwordlen", func(fl validator.FieldLevel) bool { return IsPassword(fl.Field().String()) })
	mustRegister(v, "namelen", func(fl validator.FieldLevel) bool { return IsName(fl.Field().String()) })
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// ValidateLogin checks the login form. Only presence and email shape are
// enforced; password length is the auth service's business on sign-in.
func ValidateLogin(form LoginForm) FieldErrors {
	return collect(formValidator.Struct(form))
}

// ValidateRegister checks the registration form.
func ValidateRegister(form RegisterForm) FieldErrors {
	return collect(formValidator.Struct(form))
}

func collect(err error) FieldErrors {
	out := FieldErrors{}
	if err == nil {
		return out
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		out["_form"] = "auth.validation.invalidForm"
		return out
	}
	for _, fieldErr := range validationErrs {
		field := fieldErr.Field()
		if _, seen := out[field]; seen {
			continue
		}
		key, ok := messageKeys[field][fieldErr.Tag()]
		if !ok {
			key = "auth.validation." + field + "Invalid"
		}
		out[field] = key
	}
	return out
}
