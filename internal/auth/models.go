package auth

import "time"

// Session is a signed token issued after a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Claims describes a validated session token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
