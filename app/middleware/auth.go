package appMiddleware

import "github.com/golang-jwt/jwt/v5"

type contextKey string

const UserIDKey contextKey = "userID"
const UserRoleKey contextKey = "userRole"

// Claims carried by the bearer tokens accepted on the admin routes.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

const RoleAdmin = "admin"
