// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// TOKEN_EXPIRE_TIME_SEC is the session token lifetime in seconds. Zero
	// means tokens never expire; cookie handlers also read this for MaxAge.
	TOKEN_EXPIRE_TIME_SEC int
)

// parseTokenExpireTime derives TOKEN_EXPIRE_TIME_SEC from the
// TOKEN_EXPIRE_TIME env var ("never", "0" or empty disable expiry).
func parseTokenExpireTime() {
	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	if duration == "never" || duration == "0" || duration == "" {
		TOKEN_EXPIRE_TIME_SEC = 0
		return
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		fmt.Printf("failed to parse token expire time: %v\n", err)
		os.Exit(1)
	}
	TOKEN_EXPIRE_TIME_SEC = int(d.Seconds())
}

// Init generates a fresh ed25519 signing key pair at startup. Sessions do
// not survive a restart; clients simply log in again.
func Init() {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		fmt.Printf("failed to generate ed25519 key pair: %v\n", err)
		os.Exit(1)
	}
	parseTokenExpireTime()
}

// InitFromPath loads the ed25519 key pair from disk instead of generating
// one, for deployments where sessions must outlive a restart.
func InitFromPath(privatePath, publicPath string) error {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}

	privateKey = ed25519.PrivateKey(priv)
	publicKey = ed25519.PublicKey(pub)
	parseTokenExpireTime()
	return nil
}

// CreateJWT signs a session token carrying the user id as the "sub" claim.
func CreateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
	}
	if TOKEN_EXPIRE_TIME_SEC > 0 {
		claims["exp"] = time.Now().Add(time.Duration(TOKEN_EXPIRE_TIME_SEC) * time.Second).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a session token and returns the user id it was
// issued for. Anything but an EdDSA-signed, currently valid token with a
// "sub" claim is an error.
func AuthenticateJWT(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	userID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return userID, nil
}
