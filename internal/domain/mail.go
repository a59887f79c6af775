package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CaptchaMailData struct {
	Captcha    string `json:"captcha"`
	Expiration int    `json:"expiration"` // 过期时间，以分钟为单位
}

type UrgeMailData struct {
	BookingID int64 `json:"bookingId"`
}
