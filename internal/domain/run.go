package domain

import "time"

type Run struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	Output    string    `json:"output"`
	Model     string    `json:"model"`
	Status    string    `json:"status"` // running, done, stopped, failed
	Done      int       `json:"done"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
