package keys_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-edge-auth/token/keys"
)

const testKeyID = "test-key-1"

func TestGenerateRSAKeyPair(t *testing.T) {
	t.Run("generates a usable RS256 key pair", func(t *testing.T) {
		keyPair, err := keys.GenerateRSAKeyPair(testKeyID, 2048)
		require.NoError(t, err)
		require.Equal(t, testKeyID, keyPair.KeyID)
		require.Equal(t, keys.RS256, keyPair.Algorithm)
		require.Equal(t, jwt.SigningMethodRS256, keyPair.GetSigningMethod())
	})

	t.Run("enforces the minimum modulus size", func(t *testing.T) {
		keyPair, err := keys.GenerateRSAKeyPair(testKeyID, 512)
		require.NoError(t, err)

		privateKey, ok := keyPair.PrivateKey.(*rsa.PrivateKey)
		require.True(t, ok)
		require.GreaterOrEqual(t, privateKey.N.BitLen(), keys.MinRSABits)
	})
}

func TestLoadKeyPairFromPEM(t *testing.T) {
	generated, err := keys.GenerateRSAKeyPair(testKeyID, 2048)
	require.NoError(t, err)

	privatePEM, err := generated.ExportPrivateKeyPEM()
	require.NoError(t, err)
	publicPEM, err := generated.ExportPublicKeyPEM()
	require.NoError(t, err)

	t.Run("round-trips exported PEM", func(t *testing.T) {
		loaded, err := keys.LoadKeyPairFromPEM(testKeyID, privatePEM, publicPEM)
		require.NoError(t, err)

		original := generated.PrivateKey.(*rsa.PrivateKey)
		reloaded := loaded.PrivateKey.(*rsa.PrivateKey)
		require.Zero(t, original.N.Cmp(reloaded.N))
	})

	t.Run("derives the public key when none is supplied", func(t *testing.T) {
		loaded, err := keys.LoadKeyPairFromPEM(testKeyID, privatePEM, "")
		require.NoError(t, err)
		require.NotNil(t, loaded.PublicKey)
	})

	t.Run("accepts PKCS#8 private keys", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(generated.PrivateKey)
		require.NoError(t, err)
		pkcs8PEM := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

		loaded, err := keys.LoadKeyPairFromPEM(testKeyID, pkcs8PEM, "")
		require.NoError(t, err)
		require.Equal(t, keys.RS256, loaded.Algorithm)
	})

	t.Run("rejects a public key from a different pair", func(t *testing.T) {
		other, err := keys.GenerateRSAKeyPair("other-key", 2048)
		require.NoError(t, err)
		otherPublicPEM, err := other.ExportPublicKeyPEM()
		require.NoError(t, err)

		_, err = keys.LoadKeyPairFromPEM(testKeyID, privatePEM, otherPublicPEM)
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not match")
	})

	t.Run("rejects non-PEM input", func(t *testing.T) {
		_, err := keys.LoadKeyPairFromPEM(testKeyID, "not a key", "")
		require.Error(t, err)
	})
}

func TestKeyPairSigner(t *testing.T) {
	keyPair, err := keys.GenerateRSAKeyPair(testKeyID, 2048)
	require.NoError(t, err)
	signer := keys.NewKeyPairSigner(keyPair)

	t.Run("signed tokens verify with the verification key", func(t *testing.T) {
		raw, err := signer.Sign(jwt.MapClaims{
			"sub": "user@example.com",
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		require.NoError(t, err)

		parsed, err := jwt.Parse(raw, signer.GetVerificationKey)
		require.NoError(t, err)
		require.True(t, parsed.Valid)
		require.Equal(t, testKeyID, parsed.Header["kid"])
	})

	t.Run("rejects tokens signed with a non-RSA method", func(t *testing.T) {
		hmacToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user@example.com"})
		raw, err := hmacToken.SignedString([]byte("shared-secret"))
		require.NoError(t, err)

		_, err = jwt.Parse(raw, signer.GetVerificationKey)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unexpected signing method")
	})

	t.Run("exports a single-key JWKS", func(t *testing.T) {
		jwks, err := signer.GetJWKS()
		require.NoError(t, err)
		require.Len(t, jwks.Keys, 1)
		require.Equal(t, "RSA", jwks.Keys[0].Kty)
		require.Equal(t, testKeyID, jwks.Keys[0].Kid)
		require.Equal(t, "sig", jwks.Keys[0].Use)
	})
}
