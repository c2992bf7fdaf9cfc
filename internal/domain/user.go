package domain

import "time"

type Role string

const (
	RoleSuperadmin    Role = "superadmin"
	RoleAdminInstansi Role = "admin_instansi"
	RoleUserInstansi  Role = "user_instansi"
	RoleVisitor       Role = "visitor"
)

type User struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Password      string    `json:"password,omitempty"`
	InstitutionID string    `json:"institution_id,omitempty"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Identity is the caller on whose behalf a signing happens.
type Identity struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	InstitutionID string `json:"institution_id,omitempty"`
}

type RegisterRequest struct {
	FullName      string `json:"full_name" validate:"required,min=3,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	InstitutionID string `json:"institution_id"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
