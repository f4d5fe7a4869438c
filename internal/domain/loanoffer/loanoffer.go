package loanoffer

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusDisbursed Status = "DISBURSED"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusDisbursed:
		return Status(s), nil
	default:
		return "", errors.New("unknown loan offer status: " + s)
	}
}

// Validation ceilings for loan terms.
var (
	MaxLoanAmount   = decimal.RequireFromString("1000000.00")
	MaxInterestRate = decimal.RequireFromString("50.00")
)

const MaxLoanTermMonths = 360

type LoanOffer struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customerId"`
	LoanAmount   decimal.Decimal `json:"loanAmount"`
	InterestRate decimal.Decimal `json:"interestRate"`
	LoanTerm     int             `json:"loanTerm"`
	// derived from (amount, rate, term); never accepted as input
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	Status         Status          `json:"status"`
	CreatedBy      *string         `json:"createdBy,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// OwnedBy reports whether the offer belongs to the principal's linked profile.
func (o LoanOffer) OwnedBy(profileID string) bool {
	return profileID != "" && o.CustomerID == profileID
}

var ErrNotFound = errors.New("loan offer not found")

type CreateLoanOfferRequest struct {
	CustomerID   string `json:"customerId" binding:"required,uuid"`
	LoanAmount   string `json:"loanAmount" binding:"required"`
	InterestRate string `json:"interestRate" binding:"required"`
	LoanTerm     int    `json:"loanTerm" binding:"required,min=1"`
	Status       string `json:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED DISBURSED"`
}

type UpdateLoanOfferRequest = CreateLoanOfferRequest

type ListLoanOffersFilter struct {
	CustomerID *string
	Status     *Status
	Limit      int
	Offset     int
}
