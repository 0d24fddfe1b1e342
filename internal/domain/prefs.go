package domain

import "time"

// PopupPrefs throttles the newsletter prompt for one session.
type PopupPrefs struct {
	Subscribed   bool      `json:"subscribed"`
	DismissCount int       `json:"dismissCount"`
	LastShownAt  time.Time `json:"lastShownAt,omitempty"`
}
