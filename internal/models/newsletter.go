package models

import "time"

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// NewsletterSubscription is soft-deleted through IsActive and never removed.
type NewsletterSubscription struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Interests    []string  `json:"interests"`
	Frequency    string    `json:"frequency"`
	SubscribedAt time.Time `json:"subscriptionDate"`
	IsActive     bool      `json:"isActive"`
}
