package core

import (
	"strconv"
	"strings"
	"time"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
	ToastInfo    ToastType = "info"
	ToastWarning ToastType = "warning"
)

// UncategorizedLabel is sent to the remote when an expense has no category.
const UncategorizedLabel = "Uncategorized"

type (
	Period    string
	ToastType string

	// User is the identity record returned by the remote user collection.
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Avatar   string `json:"avatar,omitempty"`
	}

	// Expense mirrors the remote expense record. Amount keeps the decimal
	// string exactly as entered; ID and CreatedAt are assigned remotely.
	Expense struct {
		ID          string `json:"id,omitempty"`
		Name        string `json:"name"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		CreatedAt   string `json:"createdAt"`
		Category    string `json:"category,omitempty"`
	}

	// ExpenseDraft is an expense before the remote has acknowledged it.
	ExpenseDraft struct {
		Name        string
		Amount      string
		Description string
		Category    string
	}

	Budget struct {
		ID       string  `json:"id"`
		Category string  `json:"category"`
		Limit    float64 `json:"limit"`
		Spent    float64 `json:"spent"`
		Period   Period  `json:"period"`
	}

	BudgetDraft struct {
		Category string
		Limit    float64
		Period   Period
	}

	// BudgetPatch carries the fields to merge into an existing budget.
	// Nil fields are left untouched.
	BudgetPatch struct {
		Category *string
		Limit    *float64
		Spent    *float64
		Period   *Period
	}
)

func (p Period) IsValid() bool {
	switch p {
	case Daily, Weekly, Monthly:
		return true
	default:
		return false
	}
}

func (p Period) String() string {
	return string(p)
}

func (t ToastType) IsValid() bool {
	switch t {
	case ToastSuccess, ToastError, ToastInfo, ToastWarning:
		return true
	default:
		return false
	}
}

// CreatedTime parses CreatedAt. Records with a missing or malformed
// timestamp report ok=false.
func (e Expense) CreatedTime() (time.Time, bool) {
	s := strings.TrimSpace(e.CreatedAt)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AmountValue returns the numeric amount, or 0 when the string does not parse.
func (e Expense) AmountValue() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(e.Amount), 64)
	if err != nil {
		return 0
	}
	return v
}

// Apply merges the patch into b and returns the result.
func (p BudgetPatch) Apply(b Budget) Budget {
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Limit != nil {
		b.Limit = *p.Limit
	}
	if p.Spent != nil && *p.Spent >= 0 {
		b.Spent = *p.Spent
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	return b
}

// Exceeded reports whether spending has strictly passed the limit.
func (b Budget) Exceeded() bool {
	return b.Spent > b.Limit
}

// ISOTimestamp formats t the way the remote stores createdAt
// (UTC, millisecond precision, trailing Z).
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
