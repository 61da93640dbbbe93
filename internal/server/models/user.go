package models

import "time"

// User is a row of the users table. Token and expiry pointers are nil
// together or set together.
type User struct {
	ID                         string
	Email                      string
	PasswordHash               string
	Name                       string
	IsVerified                 bool
	VerificationToken          *string
	VerificationTokenExpiresAt *time.Time
	ResetPasswordToken         *string
	ResetPasswordExpiresAt     *time.Time
	LastLogin                  *time.Time
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// Profile is the public view of a User returned to clients.
type Profile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsVerified  bool       `json:"isVerified"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// ToProfile copies the allow-listed fields of u.
func ToProfile(u *User) Profile {
	p := Profile{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		IsVerified: u.IsVerified,
	}
	if u.LastLogin != nil {
		t := u.LastLogin.UTC()
		p.LastLoginAt = &t
	}
	return p
}
