package domain

import "time"

// Subscriber is a newsletter subscription record.
type Subscriber struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Source        string     `json:"source,omitempty"`
	WelcomeSentAt *time.Time `json:"welcomeSentAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
