// Package authtest builds token services backed by throwaway RSA keys.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"cmsadmin/internal/auth"
)

// KeyPair returns a PEM-encoded RSA private and public key.
func KeyPair(t testing.TB) (privatePEM, publicPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})
	return privatePEM, publicPEM
}

// NewService returns an AuthService with a 15 minute access and 24 hour refresh TTL.
func NewService(t testing.TB) *auth.AuthService {
	t.Helper()
	priv, pub := KeyPair(t)
	svc, err := auth.NewAuthService(priv, pub, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

// AccessToken issues an access token for the given user and role.
func AccessToken(t testing.TB, svc *auth.AuthService, id auth.Identity) string {
	t.Helper()
	pair, err := svc.GenerateTokenPair(id)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return pair.AccessToken
}
