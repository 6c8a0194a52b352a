package auth

import (
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kampala/campushub/core"
)

var (
	portalRoleTag  = "portalrole"
	portalRoleText = "must be one of: student, faculty"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = "password must contain at least 8 characters"

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"
)

// InitValidators registers this package's custom validators and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(portalRoleTag, portalRoleValidation)
	core.RegisterCustomTranslation(validate, translator, portalRoleTag, portalRoleText)

	validate.RegisterStructValidation(registrationStructValidation, Registration{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
}

// portalRoleValidation checks that the provided role is a known portal role.
func portalRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}

// registrationStructValidation applies the password policy to new accounts:
// - minLen: 8
// - no whitespace
// - not all numeric
func registrationStructValidation(sl validator.StructLevel) {
	reg, ok := sl.Current().Interface().(Registration)
	if !ok {
		return
	}
	reportErr := func(tag string) {
		sl.ReportError(reg.Password, "password", "Password", tag, "")
	}

	if len(reg.Password) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	var digitCount int
	for _, char := range reg.Password {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len(reg.Password) {
		reportErr(pwdNotAllNumTag)
	}
}
