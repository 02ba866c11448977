package domain

import "time"

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	SchoolID     string     `json:"school_id" dynamodbav:"school_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone" dynamodbav:"phone"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	FirstName    string     `json:"first_name" dynamodbav:"first_name"`
	LastName     string     `json:"last_name" dynamodbav:"last_name"`
	// Children holds student ids; populated only for parent accounts.
	Children []string `json:"children,omitempty" dynamodbav:"children"`
	// HomeroomClassID is set for students (their cohort class).
	HomeroomClassID string     `json:"homeroom_class_id,omitempty" dynamodbav:"homeroom_class_id"`
	Enable          bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt       time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// DisplayName returns the user's full name for denormalized record fields.
func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
