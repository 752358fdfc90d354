package validation

import (
	"regexp"
	"strings"
	"unicode"

	"checkout-service/internal/models"

	"github.com/shopspring/decimal"
)

// Form is a raw, string-keyed checkout submission as it arrives from the UI.
type Form map[string]string

// Messages shown for rejected fields. One field can collect several.
const (
	msgAmountRequired = "Amount is required."
	msgAmountNumber   = "Amount must be a valid number."
	msgAmountPositive = "Amount must be greater than 0."
	msgAmountTooLarge = "Amount exceeds the maximum allowed."
	msgMinTwoChars    = "Must be at least 2 characters long."
	msgMinOneChar     = "Must be at least 1 character long."
	msgEmail          = "Must be a valid email address."
	msgCountry        = "Country code must be 2 characters."
	msgSelectOffice   = "Please select a valid office."
	msgSelectTenant   = "Please select a valid tenant."
	msgSelectProduct  = "Please select a valid product."
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

// Validator checks checkout forms. MaxAmount caps accepted amounts;
// a zero value disables the cap.
type Validator struct {
	MaxAmount decimal.Decimal
}

// New returns a Validator with the amount cap parsed from its string form.
// An empty or unparseable cap disables it.
func New(maxAmount string) *Validator {
	limit, err := decimal.NewFromString(maxAmount)
	if err != nil {
		limit = decimal.Zero
	}
	return &Validator{MaxAmount: limit}
}

// Validate turns a raw form into a normalized PaymentRequest or a
// per-field error map. It is a pure function of its input: every failing
// field is reported in a single pass, and no error is ever thrown for
// expected bad input.
func (v *Validator) Validate(form Form) (*models.PaymentRequest, *models.ValidationError) {
	errs := map[string][]string{}
	addErr := func(field, msg string) {
		errs[field] = append(errs[field], msg)
	}

	amount := v.validateAmount(form["amount"], addErr)

	firstname := strings.TrimSpace(form["firstname"])
	if len(firstname) < 2 {
		addErr("firstname", msgMinTwoChars)
	}
	lastname := strings.TrimSpace(form["lastname"])
	if len(lastname) < 2 {
		addErr("lastname", msgMinTwoChars)
	}

	email := strings.TrimSpace(form["email"])
	if !emailRe.MatchString(email) {
		addErr("email", msgEmail)
	}

	address := strings.TrimSpace(form["address"])
	if address == "" {
		addErr("address", msgMinOneChar)
	}
	city := strings.TrimSpace(form["city"])
	if city == "" {
		addErr("city", msgMinOneChar)
	}
	zipCode := strings.TrimSpace(form["zipCode"])
	if zipCode == "" {
		addErr("zipCode", msgMinOneChar)
	}

	country := validateCountry(form["country"], addErr)

	officeID := validateSelection(form["officeId"], "officeId", msgSelectOffice, addErr)
	tenantID := validateSelection(form["tenantId"], "tenantId", msgSelectTenant, addErr)
	productID := validateSelection(form["productId"], "productId", msgSelectProduct, addErr)

	if len(errs) > 0 {
		return nil, &models.ValidationError{Fields: errs}
	}

	return &models.PaymentRequest{
		Amount:    amount,
		Firstname: firstname,
		Lastname:  lastname,
		Company:   strings.TrimSpace(form["company"]),
		Email:     email,
		Address:   address,
		City:      city,
		ZipCode:   zipCode,
		Country:   country,
		Metadata: models.Metadata{
			OfficeID:  officeID,
			TenantID:  tenantID,
			ProductID: productID,
		},
	}, nil
}

// validateAmount accepts both "." and "," decimal separators and returns the
// normalized dot-separated value with two fraction digits.
func (v *Validator) validateAmount(raw string, addErr func(string, string)) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		addErr("amount", msgAmountRequired)
		return ""
	}

	normalized := strings.Replace(raw, ",", ".", 1)
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		addErr("amount", msgAmountNumber)
		return ""
	}
	if !d.IsPositive() {
		addErr("amount", msgAmountPositive)
		return ""
	}
	if v.MaxAmount.IsPositive() && d.GreaterThan(v.MaxAmount) {
		addErr("amount", msgAmountTooLarge)
		return ""
	}

	return d.StringFixed(2)
}

func validateCountry(raw string, addErr func(string, string)) string {
	country := strings.TrimSpace(raw)
	if len(country) != 2 || !isLetters(country) {
		addErr("country", msgCountry)
		return ""
	}
	return strings.ToUpper(country)
}

// validateSelection rejects empty values and the "unselected" dropdown
// sentinel.
func validateSelection(raw, field, msg string, addErr func(string, string)) string {
	value := strings.TrimSpace(raw)
	if value == "" || value == models.FilterMatchAll {
		addErr(field, msg)
		return ""
	}
	return value
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
