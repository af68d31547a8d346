package model

type UserRole string

const ROLE_USER UserRole = "user"
const ROLE_MODERATOR UserRole = "moderator"
const ROLE_ADMIN UserRole = "admin"

type AuthProvider string

const AUTH_PROVIDER_LOCAL AuthProvider = "local"
const AUTH_PROVIDER_GOOGLE AuthProvider = "google"

type User struct {
	Email        string       `json:"email"`
	FirstName    string       `json:"firstName"`
	Role         UserRole     `json:"role"`
	Skills       []string     `json:"skills"`
	PhoneNumber  string       `json:"phoneNumber"`
	AuthProvider AuthProvider `json:"authProvider"`
	CreatedAt    int64        `json:"createdAt"`
}
