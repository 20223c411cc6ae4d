package orders

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// customerIDRegex matches ids like "A1B234", "A1B-234" and "A1B 234".
var customerIDRegex = regexp.MustCompile(`^[A-Z]\d[A-Z][ -]?\d{3}$`)

// maxQuantity keeps line totals inside the store's INTEGER and NUMERIC(12,2) columns.
const maxQuantity = 10000

var fieldMessages = map[string]string{
	"name":       "Must have a name",
	"email":      "Must have email",
	"customerId": `Please enter the Customer Id in format - "XNX-NNN"`,
}

// Field is a submitted form value. Present is false when the key was missing
// from the request body entirely.
type Field struct {
	Value   string
	Present bool
}

// provided reports whether the field carries a non-blank value. The order
// form always posts every quantity input, so an empty one means the product
// was not chosen.
func (f Field) provided() bool {
	return f.Present && strings.TrimSpace(f.Value) != ""
}

// Submission is the raw order form.
type Submission struct {
	Name       string `form:"name" validate:"required"`
	Email      string `form:"email" validate:"required,email"`
	CustomerID string `form:"customerId" validate:"customerid"`
	Product1   Field  `form:"product1" validate:"-"`
	Product2   Field  `form:"product2" validate:"-"`
	Product3   Field  `form:"product3" validate:"-"`
}

// HasProducts reports whether at least one product field was submitted with
// a non-blank value.
func (s Submission) HasProducts() bool {
	return s.Product1.provided() || s.Product2.provided() || s.Product3.provided()
}

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string
	Message string
}

// Violations is returned as an error when a submission is rejected.
type Violations []Violation

func (v Violations) Error() string {
	parts := make([]string, len(v))
	for i, violation := range v {
		parts[i] = violation.Field + ": " + violation.Message
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// Validator checks order submissions. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	if err := v.RegisterValidation("customerid", func(fl validator.FieldLevel) bool {
		return customerIDRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return &Validator{validate: v}
}

// Validate returns the parsed quantities, or the violations in form order:
// name, email, customerId, then each product field.
func (v *Validator) Validate(s Submission) (Quantities, Violations) {
	var violations Violations

	if err := v.validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Quantities{}, Violations{{Field: "form", Message: err.Error()}}
		}
		for _, fe := range fieldErrs {
			violations = append(violations, Violation{Field: fe.Field(), Message: fieldMessages[fe.Field()]})
		}
	}

	var q Quantities
	for i, p := range []struct {
		field Field
		dst   *int
	}{
		{s.Product1, &q.Product1},
		{s.Product2, &q.Product2},
		{s.Product3, &q.Product3},
	} {
		n, ok := parseQuantity(p.field)
		if !ok {
			name := fmt.Sprintf("product%d", i+1)
			violations = append(violations, Violation{
				Field:   name,
				Message: fmt.Sprintf("Quantity for %s must be a whole number of 0 or more", name),
			})
			continue
		}
		*p.dst = n
	}

	if len(violations) > 0 {
		return Quantities{}, violations
	}
	return q, nil
}

// parseQuantity treats absent and blank values as zero.
func parseQuantity(f Field) (int, bool) {
	if !f.provided() {
		return 0, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(f.Value))
	if err != nil || n < 0 || n > maxQuantity {
		return 0, false
	}
	return n, true
}
