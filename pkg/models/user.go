package models

type User struct {
	ID           int    `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	Fullname     string `json:"fullname" db:"fullname"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
}

// CreateUserRequest is the signup payload. The profile fields feed the
// role's own table; which of them are required depends on the role and is
// checked by the handler.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Fullname string `json:"fullname"`
	Role     string `json:"role" binding:"required,oneof=volunteer restaurant ngo admin"`

	Phone              string   `json:"phone"`
	Name               string   `json:"name"`
	Address            string   `json:"address"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	RegistrationNumber string   `json:"registration_number"`
}

type UpdateUserRequest struct {
	Password *string `json:"password"`
	Role     *string `json:"role" binding:"omitempty,oneof=volunteer restaurant ngo admin"`
}

type UserChanges struct {
	PasswordHash *string
	Role         *string
}

func (u *UserChanges) HasChanges() bool {
	return u.PasswordHash != nil || u.Role != nil
}
