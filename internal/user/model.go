package user

import "time"

// User is a wallet owner. Identity and authentication live with the hosted
// identity provider; this record mirrors the profile fields the backend
// needs. The balance column on the same row is mutated only through the
// wallet ledger.
type User struct {
	ID        string
	Email     string
	Name      string
	IsAdmin   bool
	CreatedAt time.Time
}
