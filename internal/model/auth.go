package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims for an authenticated user
type UserClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}
