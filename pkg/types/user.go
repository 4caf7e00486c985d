package types

import "strings"

type User struct {
	Entity
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Email     string `json:"email" db:"email"` // lower-cased, unique across all rows
	Password  string `json:"-" db:"password"`  // bcrypt hash
}

func (u *User) TableName() TableName {
	return TABLE_USER
}

func (u *User) Columns() []string {
	return append(BaseColumns(), "first_name", "last_name", "email", "password")
}

func (u *User) Values() []any {
	return append(u.baseValues(), u.FirstName, u.LastName, u.Email, u.Password)
}

func (u *User) OwnerID() string {
	return u.ID
}

type UserCreate struct {
	FirstName string `json:"first_name" binding:"required,min=1,max=255"`
	LastName  string `json:"last_name" binding:"required,min=1,max=255"`
	Email     string `json:"email" binding:"required,email,max=255,kh_email"`
	Password  string `json:"password" binding:"required,kh_password"`
}

func (p UserCreate) Serialize() map[string]any {
	return map[string]any{
		"first_name": p.FirstName,
		"last_name":  p.LastName,
		"email":      strings.TrimSpace(p.Email),
		"password":   p.Password,
	}
}

type UserUpdate struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=255"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1,max=255"`
	Password  *string `json:"password" binding:"omitempty,kh_password"`
}

func (p UserUpdate) Serialize() map[string]any {
	return map[string]any{
		"first_name": ptrValue(p.FirstName),
		"last_name":  ptrValue(p.LastName),
		"password":   ptrValue(p.Password),
	}
}

type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserOut is the outward representation of a user, it never carries the password hash.
type UserOut struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func NewUserOut(u *User) UserOut {
	return UserOut{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Unix(),
		UpdatedAt: u.UpdatedAt.Unix(),
	}
}

type LoginResult struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresAt   int64   `json:"expires_at"`
	User        UserOut `json:"user"`
}
