package profile

import (
	"errors"
	"time"
)

var (
	ErrProfileNotFound = errors.New("billing profile not found")
	ErrProfileExists   = errors.New("billing profile already exists")
)

const DefaultBusinessName = "JFLIPS"

// Profile holds the billing identity copied verbatim onto generated invoices.
type Profile struct {
	CoachID       string    `diff:"-"`
	BusinessName  string    `diff:"business_name"`
	BankName      string    `diff:"bank_name"`
	AccountNumber string    `diff:"account_number"`
	BranchCode    string    `diff:"branch_code"`
	AccountType   string    `diff:"account_type"`
	Logo          string    `diff:"logo"`
	UpdatedAt     time.Time `diff:"updated_at"`
}

// Default is the profile used before the coach has saved one.
func Default(coachID string) *Profile {
	return &Profile{
		CoachID:      coachID,
		BusinessName: DefaultBusinessName,
		AccountType:  "Current",
	}
}
