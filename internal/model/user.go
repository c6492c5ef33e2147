package model

import "time"

// OccupationTeacher marks users allowed to create courses when creation is restricted.
const OccupationTeacher = "teacher"

type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Occupation  string    `json:"occupation"`
	TelegramID  *int64    `json:"telegram_id"` // nil = notifications disabled
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// IsTeacher reports whether the user's occupation is teacher.
func (u *User) IsTeacher() bool {
	return u.Occupation == OccupationTeacher
}
