package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	companyID := uint(42)
	token, err := util.GenerateToken("q@acme.test", 7, &companyID, "member")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "q@acme.test", claims.Email)
	assert.Equal(t, uint(7), claims.UserID)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, companyID, *claims.CompanyID)
	assert.Equal(t, "member", claims.SystemRole)
}

func TestValidateTokenWrongKey(t *testing.T) {
	issuer := NewJWTUtil(&JWTConfig{SigningKey: "issuer-key", ExpirationHours: 1})
	verifier := NewJWTUtil(&JWTConfig{SigningKey: "other-key", ExpirationHours: 1})

	token, err := issuer.GenerateToken("q@acme.test", 7, nil, "member")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-signing-key", ExpirationHours: -1})

	token, err := util.GenerateToken("q@acme.test", 7, nil, "member")
	require.NoError(t, err)

	_, err = util.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateGarbageToken(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})

	_, err := util.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}

func TestNilConfig(t *testing.T) {
	util := NewJWTUtil(nil)

	_, err := util.GenerateToken("q@acme.test", 7, nil, "member")
	assert.Error(t, err)
	_, err = util.ValidateToken("token")
	assert.Error(t, err)
}
