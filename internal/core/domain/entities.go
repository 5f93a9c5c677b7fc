package domain

import (
	"math"
	"time"
)

// Role represents an authorization role carried by an account
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AccountKind is the closed set of account types
type AccountKind string

const (
	KindPatron    AccountKind = "PATRON"
	KindLibrarian AccountKind = "LIBRARIAN"
)

// Valid reports whether k is a known account kind
func (k AccountKind) Valid() bool {
	return k == KindPatron || k == KindLibrarian
}

// DefaultRoles returns the role set a freshly registered account of this kind receives.
func (k AccountKind) DefaultRoles() []Role {
	switch k {
	case KindLibrarian:
		return []Role{RoleAdmin}
	default:
		return []Role{RoleUser}
	}
}

// AccountStatus doubles as the session-presence flag: ACTIVE while logged in.
type AccountStatus string

const (
	StatusActive   AccountStatus = "ACTIVE"
	StatusInactive AccountStatus = "INACTIVE"
)

// LoanStatus moves ACTIVE -> RETURNED only
type LoanStatus string

const (
	LoanActive   LoanStatus = "ACTIVE"
	LoanReturned LoanStatus = "RETURNED"
)

// Valid reports whether s is a known loan status
func (s LoanStatus) Valid() bool {
	return s == LoanActive || s == LoanReturned
}

// DefaultBorrowLimit is the number of simultaneous ACTIVE loans allowed per account.
const DefaultBorrowLimit = 5

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message,omitempty"`
}

// OverdueEvent is emitted once per overdue ACTIVE loan on every scan.
type OverdueEvent struct {
	LoanID      uint      `json:"loanId"`
	AccountID   uint      `json:"accountId"`
	Username    string    `json:"username"`
	BookID      uint      `json:"bookId"`
	BookTitle   string    `json:"bookTitle"`
	DueDate     time.Time `json:"dueDate"`
	DaysOverdue int       `json:"daysOverdue"`
	DetectedAt  time.Time `json:"detectedAt"`
}

// Statistics is the aggregate count snapshot served to librarians
type Statistics struct {
	TotalBooks    int64 `json:"totalBooks"`
	TotalUsers    int64 `json:"totalUsers"`
	TotalLoans    int64 `json:"totalLoans"`
	ActiveLoans   int64 `json:"activeLoans"`
	ReturnedLoans int64 `json:"returnedLoans"`
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b (b after a gives a positive count).
func DaysBetween(a, b time.Time) int {
	a = StartOfDay(a)
	b = StartOfDay(b.In(a.Location()))
	return int(math.Round(b.Sub(a).Hours() / 24))
}
