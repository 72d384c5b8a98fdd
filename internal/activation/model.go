package activation

import "time"

// Status of an OTP session. Transitions are one-way: pending moves to success
// or canceled and never back.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusCanceled Status = "canceled"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusCanceled
}

// DefaultOperatorID is the provider operator used for every lease.
const DefaultOperatorID = "1"

// Session is one leased phone number and its OTP-arrival state. The id is the
// provider-issued lease id; SessionToken mirrors it. OTP is non-empty only
// when Status is success.
type Session struct {
	ID           string
	UserID       string
	ServiceID    string
	OperatorID   string
	Number       string
	OTP          string
	SessionToken string
	Status       Status
	CreatedAt    time.Time
}
