package randx

import (
	"strings"
	"testing"
)

func TestInviteToken_Shape(t *testing.T) {
	token, err := InviteToken()
	if err != nil {
		t.Fatalf("InviteToken() error = %v", err)
	}

	if len(token) != InviteTokenLength {
		t.Errorf("token length = %d, want %d", len(token), InviteTokenLength)
	}

	for _, char := range token {
		if !strings.ContainsRune(Base62Chars, char) {
			t.Errorf("token contains non-base62 character %q", char)
		}
	}
}

func TestInviteToken_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := InviteToken()
		if err != nil {
			t.Fatalf("InviteToken() error = %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = struct{}{}
	}
}

func TestIsValidInviteToken(t *testing.T) {
	valid, err := InviteToken()
	if err != nil {
		t.Fatalf("InviteToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"generated token", valid, true},
		{"empty", "", false},
		{"too short", valid[:InviteTokenLength-1], false},
		{"too long", valid + "a", false},
		{"bad character", strings.Repeat("!", InviteTokenLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidInviteToken(tt.token); got != tt.want {
				t.Errorf("IsValidInviteToken(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
