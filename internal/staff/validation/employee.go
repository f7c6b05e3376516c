package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
)

// PhoneTag is the struct tag registered by Register.
const PhoneTag = "ua_phone"

// MinBirthYear is the earliest accepted year of birth.
const MinBirthYear = 1900

var phonePattern = regexp.MustCompile(`^(\+380|0)\d{9}$`)

// EmployeeValidator provides employee field checks that go beyond struct tags
type EmployeeValidator struct {
	now func() time.Time
}

// NewEmployeeValidator creates a new employee validator
func NewEmployeeValidator() *EmployeeValidator {
	return &EmployeeValidator{now: time.Now}
}

// WithClock replaces the clock used for "in the past" checks.
func (v *EmployeeValidator) WithClock(now func() time.Time) *EmployeeValidator {
	v.now = now
	return v
}

// ValidationResult contains the result of a validation
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
	Formatted string `json:"formatted,omitempty"`
}

// Register installs the ua_phone tag on the shared request validator.
func Register() error {
	return httputil.RegisterCustomValidation(PhoneTag, func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

// ValidatePhone validates a Ukrainian phone number.
// Accepted forms: +380XXXXXXXXX and 0XXXXXXXXX. Spaces and dashes are ignored.
func (v *EmployeeValidator) ValidatePhone(phone string) *ValidationResult {
	clean := strings.NewReplacer(" ", "", "-", "").Replace(phone)

	if !phonePattern.MatchString(clean) {
		return &ValidationResult{
			Valid:   false,
			Message: "phone number must be +380XXXXXXXXX or 0XXXXXXXXX",
		}
	}

	formatted := clean
	if strings.HasPrefix(clean, "0") {
		formatted = "+38" + clean
	}
	return &ValidationResult{Valid: true, Formatted: formatted}
}

// ValidateDates checks that the birth date is in the past and not before
// MinBirthYear, and that employment starts after birth.
func (v *EmployeeValidator) ValidateDates(birth, start time.Time) map[string]string {
	problems := make(map[string]string)

	if !birth.Before(v.now()) {
		problems["date_of_birth"] = "must be in the past"
	} else if birth.Year() < MinBirthYear {
		problems["date_of_birth"] = "must not be before 1900"
	}

	if !start.After(birth) {
		problems["date_of_start"] = "must be after date_of_birth"
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}
