package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims for the
// chat service. The real-time core trusts these claims after signature
// verification; there is no server-side session state to revoke.
type Payload struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These drive token validity checks.
	jwt.StandardClaims

	// UserID identifies the authenticated account.
	UserID int64 `json:"userId"`

	// Nickname is the display name at token issue time. Message fan-out
	// re-reads the current nickname from the database, so a stale value here
	// only affects cosmetic uses of the token itself.
	Nickname string `json:"nickname"`
}
