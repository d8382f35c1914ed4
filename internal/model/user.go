package model

import "time"

// User represents an account record in the identity store.  Usernames are
// unique and act as the natural key; bookings reference users by username
// only.  Users are created on registration and never mutated afterwards.
//
// Fields:
//  Username     – unique login name (3–20 characters).
//  PasswordHash – bcrypt hashed password.
//  Email        – optional address used for notifications.
//  CreatedAt    – timestamp of registration.
type User struct {
    Username     string    `json:"username"`
    PasswordHash string    `json:"password_hash"`
    Email        string    `json:"email,omitempty"`
    CreatedAt    time.Time `json:"created_at"`
}

// Role names carried in the session token.  ADMIN is granted only to the
// configured sentinel username.
const (
    RoleAdmin    = "ADMIN"
    RoleCustomer = "CUSTOMER"
)
