package domain

type UserBookingCount struct {
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	BookingCount int64  `json:"bookingCount"`
}
