package app

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"contest-tracker/internal/model"
)

var validate = newValidator()

var webURLSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"ftps":  true,
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report "platform_id" instead of "PlatformID"
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "weburl", isWebURL)
	mustRegister(v, "platform", isPlatform)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q failed: %v", tag, err))
	}
}

// isWebURL accepts absolute http, https, ftp and ftps URLs with a host.
func isWebURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return webURLSchemes[strings.ToLower(u.Scheme)] && u.Host != ""
}

func isPlatform(fl validator.FieldLevel) bool {
	return model.Platform(fl.Field().String()).Valid()
}

// validateInput collects every failed rule of inp into a ValidationError.
// The returned value is never nil so callers can keep adding their own checks.
func validateInput(inp any) *ValidationError {
	verr := newValidationError()

	err := validate.Struct(inp)
	if err == nil {
		return verr
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		log.Errorf("unexpected validator failure: %v", err)
		verr.Add(NonFieldErrors, ErrInvalidInput.Error())
		return verr
	}
	for _, fe := range validationErrors {
		verr.Add(fe.Field(), translateValidationError(fe))
	}
	return verr
}

func translateValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field())
	case "weburl":
		return fmt.Sprintf("%s must be a valid http, https, ftp or ftps URL", e.Field())
	case "platform":
		return fmt.Sprintf("%s must be one of %s", e.Field(), platformChoices())
	case "min":
		if e.Param() == "1" {
			return fmt.Sprintf("%s may not be blank", e.Field())
		}
		return fmt.Sprintf("%s must be at least %s characters long", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", e.Field(), e.Param())
	default:
		return fmt.Sprintf("validation failed for %s with rule %s", e.Field(), e.Tag())
	}
}

// platformChoices renders e.g. "C (Codeforces), O (OmegaUp)".
func platformChoices() string {
	platforms := model.Platforms()
	parts := make([]string, 0, len(platforms))
	for _, p := range platforms {
		parts = append(parts, fmt.Sprintf("%s (%s)", p, p.Label()))
	}
	return strings.Join(parts, ", ")
}
