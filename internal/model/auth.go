package model

import "github.com/golang-jwt/jwt/v5"

// PlayerClaims is the JWT payload minted when a player creates or joins a
// session. Tokens are session-scoped.
type PlayerClaims struct {
	PlayerID  string `json:"playerId"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}
