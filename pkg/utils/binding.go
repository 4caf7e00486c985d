package utils

import (
	stderrors "errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/security"
)

const (
	RULE_EMAIL    = "kh_email"
	RULE_PASSWORD = "kh_password"
)

var emailLocalPart = regexp.MustCompile(`^[a-z0-9]+$`)

// ValidEmail accepts addresses whose local part is lower-case alphanumeric.
func ValidEmail(email string) bool {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	return ok && domain != "" && emailLocalPart.MatchString(local)
}

// ValidPassword wants 8 to 32 characters with an upper, a lower, a digit and a special character.
// Multibyte input is also held to the bcrypt input limit.
func ValidPassword(password string) bool {
	if n := len([]rune(password)); n < 8 || n > 32 {
		return false
	}
	if len(password) > security.MaxPasswordBytes {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

var registerOnce sync.Once

// RegisterBindingRules adds the payload rules to gin's validator engine.
func RegisterBindingRules() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation(RULE_EMAIL, func(fl validator.FieldLevel) bool {
			return ValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation(RULE_PASSWORD, func(fl validator.FieldLevel) bool {
			return ValidPassword(fl.Field().String())
		})
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// BindingFieldErrors maps each failing json field to the rule it broke.
func BindingFieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return nil
	}
	res := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		res[fe.Field()] = append(res[fe.Field()], i18n.FIELD_RULE_PREFIX+fe.Tag())
	}
	return res
}
