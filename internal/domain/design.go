package domain

import "time"

// DesignSubmission is a custom jewelry design request.
type DesignSubmission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	PieceType   string    `json:"pieceType,omitempty"`
	Metal       string    `json:"metal,omitempty"`
	Gemstone    string    `json:"gemstone,omitempty"`
	RingSize    string    `json:"ringSize,omitempty"`
	Budget      string    `json:"budget,omitempty"`
	Description string    `json:"description"`
	SketchURL   string    `json:"sketchUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
