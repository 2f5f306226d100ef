package checkout

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/znasser/storefront/internal/cart"
)

// Delivery covers the twelve governorate seats; every name is listed in
// both Latin and Arabic script and matched case-insensitively.
var cities = map[string]struct{}{}

var cityNames = []string{
	"Amman", "عمان",
	"Zarqa", "الزرقاء",
	"Irbid", "إربد",
	"Aqaba", "العقبة",
	"Salt", "السلط",
	"Madaba", "مأدبا",
	"Jerash", "جرش",
	"Ajloun", "عجلون",
	"Karak", "الكرك",
	"Mafraq", "المفرق",
	"Tafilah", "الطفيلة",
	"Maan", "معان",
}

var mobileRe = regexp.MustCompile(`^07[0-9]{8}$`)

func init() {
	for _, name := range cityNames {
		cities[strings.ToLower(name)] = struct{}{}
	}
}

type CustomerInfo struct {
	Name    string `json:"name"    validate:"required"`
	Phone   string `json:"phone"   validate:"required,jo_mobile"`
	Address string `json:"address" validate:"required,min=10,max=190"`
	City    string `json:"city"    validate:"required,jo_city"`
}

// FieldError carries a human-readable, field-specific reason; the shop UI
// renders these next to the offending input.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Validator gates order submission. It performs no I/O; callers decide
// what to do with the result.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("jo_mobile", func(fl validator.FieldLevel) bool {
		return mobileRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("jo_city", func(fl validator.FieldLevel) bool {
		_, ok := cities[strings.ToLower(fl.Field().String())]
		return ok
	})

	return &Validator{validate: v}
}

// Validate checks the customer fields, the cart contents and the captcha
// answer, and reports every failure with its own reason.
func (v *Validator) Validate(info CustomerInfo, lines []cart.Line, answer int, challenge Challenge) Result {
	info.Name = strings.TrimSpace(info.Name)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Address = strings.TrimSpace(info.Address)
	info.City = strings.TrimSpace(info.City)

	var errs []FieldError

	if err := v.validate.Struct(info); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			errs = append(errs, FieldError{
				Field:  strings.ToLower(fe.StructField()),
				Reason: reasonFor(fe),
			})
		}
	}

	if len(lines) == 0 {
		errs = append(errs, FieldError{Field: "cart", Reason: "cart is empty"})
	} else {
		for _, l := range lines {
			if l.Quantity < 1 {
				errs = append(errs, FieldError{Field: "cart", Reason: "cart contains an item with no quantity"})
				break
			}
		}
	}

	if !challenge.Check(answer) {
		errs = append(errs, FieldError{Field: "captcha", Reason: "captcha answer is incorrect"})
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Name":
		return "name is required"
	case "Phone":
		if fe.Tag() == "required" {
			return "phone is required"
		}
		return "phone must be 10 digits starting with 07"
	case "Address":
		if fe.Tag() == "required" {
			return "address is required"
		}
		return "address must be between 10 and 190 characters"
	case "City":
		if fe.Tag() == "required" {
			return "city is required"
		}
		return "delivery is not available in this city"
	}
	return "invalid value"
}
