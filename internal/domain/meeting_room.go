package domain

import (
	"time"
)

type MeetingRoom struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Capacity    int32     `json:"capacity"`
	Location    string    `json:"location"`
	Equipment   string    `json:"equipment"`
	Description string    `json:"description"`
	IsBooked    bool      `json:"isBooked"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
