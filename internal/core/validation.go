package core

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// Form messages, as displayed next to the offending field.
const (
	MsgNameRequired        = "Name is required"
	MsgInvalidAmount       = "Please enter a valid amount"
	MsgDescriptionRequired = "Description is required"
	MsgCategoryRequired    = "Category is required"
	MsgUsernameTooShort    = "Username must be at least 3 characters"
	MsgPasswordTooShort    = "Password must be at least 6 characters"
	MsgInvalidPeriod       = "Invalid period"
)

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	amountRe = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

func ValidatePassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

func ValidateUsername(username string) bool {
	return utf8.RuneCountInString(username) >= MinUsernameLength
}

// ValidateAmount accepts positive decimals with at most two fraction digits.
func ValidateAmount(amount string) bool {
	if !amountRe.MatchString(amount) {
		return false
	}
	v, err := strconv.ParseFloat(amount, 64)
	return err == nil && v > 0
}

func ValidateRequired(value string) bool {
	return strings.TrimSpace(value) != ""
}

// ValidateLoginForm checks the credentials before a login attempt.
func ValidateLoginForm(username, password string) error {
	verr := &ValidationError{}
	if !ValidateUsername(username) {
		verr.add("username", MsgUsernameTooShort)
	}
	if !ValidatePassword(password) {
		verr.add("password", MsgPasswordTooShort)
	}
	return verr.orNil()
}

// ValidateExpenseForm checks an expense draft. Category is optional.
func ValidateExpenseForm(d ExpenseDraft) error {
	verr := &ValidationError{}
	if !ValidateRequired(d.Name) {
		verr.add("name", MsgNameRequired)
	}
	if !ValidateAmount(d.Amount) {
		verr.add("amount", MsgInvalidAmount)
	}
	if !ValidateRequired(d.Description) {
		verr.add("description", MsgDescriptionRequired)
	}
	return verr.orNil()
}

// ValidateBudgetForm checks the raw budget form and returns the parsed limit.
func ValidateBudgetForm(category, limit string, period Period) (float64, error) {
	verr := &ValidationError{}
	if !ValidateRequired(category) {
		verr.add("category", MsgCategoryRequired)
	}
	var value float64
	if !ValidateAmount(limit) {
		verr.add("limit", MsgInvalidAmount)
	} else {
		value, _ = strconv.ParseFloat(limit, 64)
	}
	if !period.IsValid() {
		verr.add("period", MsgInvalidPeriod)
	}
	return value, verr.orNil()
}

// ValidateBudgetPatch builds a patch from raw update input. Empty inputs are
// left out of the patch; non-empty ones are validated like the create form.
func ValidateBudgetPatch(category, limit string, period Period) (BudgetPatch, error) {
	var patch BudgetPatch
	verr := &ValidationError{}
	if category != "" {
		if !ValidateRequired(category) {
			verr.add("category", MsgCategoryRequired)
		}
		patch.Category = &category
	}
	if limit != "" {
		if !ValidateAmount(limit) {
			verr.add("limit", MsgInvalidAmount)
		} else {
			v, _ := strconv.ParseFloat(limit, 64)
			patch.Limit = &v
		}
	}
	if period != "" {
		if !period.IsValid() {
			verr.add("period", MsgInvalidPeriod)
		}
		patch.Period = &period
	}
	return patch, verr.orNil()
}
