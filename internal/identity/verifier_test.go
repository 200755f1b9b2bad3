package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	return Claims{
		Email:   "bob@acme.com",
		Name:    "Bob",
		Picture: "https://img.example.com/bob.png",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "provider-123",
			Issuer:    "https://idp.example.com",
			Audience:  jwt.ClaimStrings{"team-tasks"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerify_Valid(t *testing.T) {
	v := NewVerifier("secret", "https://idp.example.com", "team-tasks")

	id, err := v.Verify(signToken(t, "secret", validClaims()))
	require.NoError(t, err)
	require.Equal(t, "provider-123", id.Subject)
	require.Equal(t, "bob@acme.com", id.Email)
	require.Equal(t, "Bob", id.Name)
	require.Equal(t, "https://img.example.com/bob.png", id.Picture)
}

func TestVerify_Rejects(t *testing.T) {
	v := NewVerifier("secret", "https://idp.example.com", "team-tasks")

	cases := map[string]func() string{
		"wrong secret": func() string { return signToken(t, "other", validClaims()) },
		"expired": func() string {
			c := validClaims()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			return signToken(t, "secret", c)
		},
		"no expiry": func() string {
			c := validClaims()
			c.ExpiresAt = nil
			return signToken(t, "secret", c)
		},
		"wrong issuer": func() string {
			c := validClaims()
			c.Issuer = "https://evil.example.com"
			return signToken(t, "secret", c)
		},
		"wrong audience": func() string {
			c := validClaims()
			c.Audience = jwt.ClaimStrings{"another-app"}
			return signToken(t, "secret", c)
		},
		"missing email": func() string {
			c := validClaims()
			c.Email = " "
			return signToken(t, "secret", c)
		},
		"garbage": func() string { return "not-a-token" },
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token())
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	v := NewVerifier("secret", "", "")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
