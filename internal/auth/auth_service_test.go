package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/auth/authtest"
	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
)

func TestTokenPair_RoundTrip(t *testing.T) {
	svc := authtest.NewService(t)
	id := auth.Identity{UserID: 7, Role: database.RoleAdmin, MustChangePassword: true}

	pair, err := svc.GenerateTokenPair(id)
	require.NoError(t, err)

	access, err := svc.ValidateToken(pair.AccessToken, auth.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, id, access.Identity())
	require.Equal(t, "7", access.Subject)

	refresh, err := svc.ValidateToken(pair.RefreshToken, auth.TokenTypeRefresh)
	require.NoError(t, err)
	require.NotEmpty(t, refresh.ID)
	require.False(t, refresh.MustChangePassword)
}

func TestValidateToken_RejectsWrongType(t *testing.T) {
	svc := authtest.NewService(t)
	pair, err := svc.GenerateTokenPair(auth.Identity{UserID: 1, Role: database.RoleUser})
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.RefreshToken, auth.TokenTypeAccess)
	require.True(t, errcode.Is(err, errcode.KindUnauthorized))

	_, err = svc.ValidateToken(pair.AccessToken, auth.TokenTypeRefresh)
	require.True(t, errcode.Is(err, errcode.KindUnauthorized))
}

func TestValidateToken_RejectsForeignKey(t *testing.T) {
	issuer := authtest.NewService(t)
	verifier := authtest.NewService(t)

	token := authtest.AccessToken(t, issuer, auth.Identity{UserID: 1, Role: database.RoleAdmin})
	_, err := verifier.ValidateToken(token, auth.TokenTypeAccess)
	require.True(t, errcode.Is(err, errcode.KindUnauthorized))
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	priv, pub := authtest.KeyPair(t)
	svc, err := auth.NewAuthService(priv, pub, -time.Minute, time.Hour)
	require.NoError(t, err)

	pair, err := svc.GenerateTokenPair(auth.Identity{UserID: 1, Role: database.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.AccessToken, auth.TokenTypeAccess)
	require.True(t, errcode.Is(err, errcode.KindUnauthorized))
}

func TestValidateToken_EmptyAndGarbage(t *testing.T) {
	svc := authtest.NewService(t)

	_, err := svc.ValidateToken("", auth.TokenTypeAccess)
	require.True(t, errcode.Is(err, errcode.KindUnauthorized))

	_, err = svc.ValidateToken("not.a.jwt", auth.TokenTypeAccess)
	require.True(t, errcode.Is(err, errcode.KindUnauthorized))
}

func TestPasswordHash(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", hash)
	require.True(t, auth.CheckPasswordHash("correct horse", hash))
	require.False(t, auth.CheckPasswordHash("wrong", hash))
}
