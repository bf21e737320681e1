/*
Package randx provides cryptographically secure random identifiers.

It generates the opaque invite tokens that gate join-by-link access to group
rooms.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// InviteTokenLength is the fixed length of a room invite token.
	InviteTokenLength = 24
)

// InviteToken generates a Base62 invite token using crypto/rand. At 24
// characters the token is unguessable in practice.
func InviteToken() (string, error) {
	result := make([]byte, InviteTokenLength)

	for i := 0; i < InviteTokenLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for invite token: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// IsValidInviteToken checks if the given string has the shape of an invite
// token: correct length and Base62 characters only.
func IsValidInviteToken(token string) bool {
	if len(token) != InviteTokenLength {
		return false
	}

	for _, char := range token {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
