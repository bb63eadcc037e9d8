package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
)

func Init() {
	validate = validator.New()

	sanitizer = bluemonday.StrictPolicy()

	registerCustomValidations(validate)

	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerCustomValidations(engine)
	}
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("promo_code", validatePromoCode)
	v.RegisterValidation("sku", validateSKU)
	v.RegisterValidation("payment_method", validatePaymentMethod)
}

func Validate(s interface{}) error {
	return validate.Struct(s)
}

// SanitizeString strips any markup from free-text input such as customer
// names and promotion descriptions before they reach storage.
func SanitizeString(s string) string {
	return sanitizer.Sanitize(strings.TrimSpace(s))
}

func ValidateEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

func ValidatePassword(password string) (bool, string) {
	if len(password) < 6 {
		return false, "password must be at least 6 characters long"
	}

	return true, ""
}

// validatePromoCode accepts short alphanumeric codes the way cashiers key
// them in: 3-32 characters, letters, digits and dashes.
func validatePromoCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9-]+$`, code)
	return matched && len(code) >= 3 && len(code) <= 32
}

func validateSKU(fl validator.FieldLevel) bool {
	sku := fl.Field().String()
	matched, _ := regexp.MatchString(`^[A-Za-z0-9_-]+$`, sku)
	return matched && len(sku) >= 1 && len(sku) <= 64
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "cash", "qris", "ewallet", "transfer":
		return true
	}
	return false
}

func TrimSpaces(s string) string {
	return strings.TrimSpace(s)
}

func NormalizeSpaces(s string) string {
	space := regexp.MustCompile(`\s+`)
	return space.ReplaceAllString(s, " ")
}
