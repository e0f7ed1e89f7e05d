package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 30)

	pair, err := svc.Generate("auth0|user42", false, []string{"member", "vip"}, "silver")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.EqualValues(t, 15*60, pair.ExpiresIn)

	claims, err := svc.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "auth0|user42", claims.IdentityID)
	assert.False(t, claims.Anonymous)
	assert.Equal(t, []string{"member", "vip"}, claims.Roles)
	assert.Equal(t, "silver", claims.VIPLevel)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	refreshClaims, err := svc.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
	assert.Empty(t, refreshClaims.Roles)
}

func TestJWTService_VerifyRejectsWrongSecret(t *testing.T) {
	pair, err := NewJWTService("secret-a", 15, 30).Generate("anon_visitor", true, nil, "")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 15, 30).Verify(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTService_VerifyRejectsTamperedToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 30)
	pair, err := svc.Generate("auth0|user42", false, nil, "")
	require.NoError(t, err)

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	_, err = svc.Verify(tampered)
	assert.Error(t, err)
}

func TestJWTService_VerifyRejectsUnsignedToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 30)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{IdentityID: "auth0|user42"})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(unsigned)
	assert.Error(t, err)
}

func TestJWTService_ShouldRefresh(t *testing.T) {
	svc := NewJWTService("test-secret", 15, 30)

	assert.False(t, svc.ShouldRefresh(nil))

	soon := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Minute)),
	}}
	assert.True(t, svc.ShouldRefresh(soon))

	later := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	assert.False(t, svc.ShouldRefresh(later))
}
