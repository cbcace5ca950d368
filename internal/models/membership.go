package models

import (
	"fmt"
	"time"
)

// Payment status values
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

const (
	MembershipIDPrefix = "CIS"
	DefaultPosition    = "Member"
	DefaultDepartment  = "CYBER OPERATIONS"
)

// Membership is an accepted application together with its credential-card data.
type Membership struct {
	ID              string    `json:"id"`
	Title           string    `json:"title,omitempty"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Mobile          string    `json:"mobile,omitempty"`
	CurrentPosition string    `json:"currentPosition,omitempty"`
	Institute       string    `json:"institute,omitempty"`
	Department      string    `json:"department,omitempty"`
	Organisation    string    `json:"organisation"`
	Address         string    `json:"address,omitempty"`
	Town            string    `json:"town"`
	Postcode        string    `json:"postcode,omitempty"`
	State           string    `json:"state,omitempty"`
	Country         string    `json:"country"`
	Status          string    `json:"status"`
	LinkedIn        string    `json:"linkedin,omitempty"`
	ORCID           string    `json:"orcid,omitempty"`
	ResearchGate    string    `json:"researchGate,omitempty"`
	MembershipFee   string    `json:"membershipFee,omitempty"`
	ProfilePhoto    string    `json:"profilePhoto,omitempty"`
	PaymentStatus   string    `json:"paymentStatus"`
	MembershipID    string    `json:"membershipId"`
	IssueDate       time.Time `json:"issueDate"`
	ExpiryDate      time.Time `json:"expiryDate"`
	CreatedAt       time.Time `json:"createdAt"`
}

// FullName joins first and last name the way the member card prints it.
func (m *Membership) FullName() string {
	return m.FirstName + " " + m.LastName
}

// IsActiveAt reports whether the membership is still within its validity window.
func (m *Membership) IsActiveAt(now time.Time) bool {
	return now.Before(m.ExpiryDate)
}

// FormatMembershipID renders CIS<year><seq>, padding seq to four digits.
func FormatMembershipID(year, seq int) string {
	return fmt.Sprintf("%s%d%04d", MembershipIDPrefix, year, seq)
}

// MembershipExpiry returns the expiry for a membership issued at issue.
// time.AddDate normalises Feb 29 to Mar 1 in non-leap years.
func MembershipExpiry(issue time.Time) time.Time {
	return issue.AddDate(1, 0, 0)
}

// IsValidPaymentStatus reports whether s is one of the known payment states.
func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}
