package auth

import (
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("test-secret")

func testClaims(exp time.Time) Claims {
	return Claims{
		Sub:   "user-1",
		Name:  "Ada",
		Email: "ada@example.com",
		JTI:   "jti-1",
		Exp:   exp.Unix(),
	}
}

func TestIssueParseRoundTrip(t *testing.T) {
	claims := testClaims(time.Now().Add(time.Hour))
	token, err := IssueToken(testSecret, claims)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parsed, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != claims {
		t.Fatalf("claims changed in round trip: %+v != %+v", parsed, claims)
	}
}

func TestParseRejectsTamperedPayload(t *testing.T) {
	token, err := IssueToken(testSecret, testClaims(time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token, ".")
	tampered := parts[0] + "x." + parts[1]
	if _, err := ParseToken(testSecret, tampered); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken(testSecret, testClaims(time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken([]byte("other-secret"), token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := IssueToken(testSecret, testClaims(time.Now().Add(-time.Minute)))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken(testSecret, token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "abc", "a.b.c", "!!!.???"} {
		if _, err := ParseToken(testSecret, token); err != ErrInvalidToken {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestHashTokenStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("expected stable hash")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("expected distinct hashes")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatal("expected sha256 hex digest")
	}
}
