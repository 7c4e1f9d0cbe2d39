package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the JWT payload carried by every authenticated caller.
type UserClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginResponse is returned on successful register or login.
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}
