package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const TokenTypeAPI TokenType = "api"

// Claims identify an API client and the outbound channels it may use.
type Claims struct {
	jwt.RegisteredClaims

	ClientID  string    `json:"client_id"`
	Scopes    []string  `json:"scopes"`
	TokenType TokenType `json:"token_type"`
}
