package domain

import "time"

// User is a device-local account. Credentials never leave the Local Store.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"password_hash"`
	PasswordSalt []byte    `json:"password_salt"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionUser is the public part of a User carried in the session blob.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) SessionUser() SessionUser {
	return SessionUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

type Profile struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	LikedCount  int    `json:"liked_count"`
	WelcomeSeen bool   `json:"welcome_seen"`
}
