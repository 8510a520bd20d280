// Package auth issues and verifies the optional admin-scoped JWT layered
// on top of the default admin-flag trust model (spec §4.5/§9): a lobby
// created with rules.admin=true trusts any connection claiming the admin
// role by default, but a deployment can additionally require a signed token
// minted by CreateAdminToken and checked with AuthenticateAdminToken (the
// dispatcher does this when its AdminJWTRequired flag is set).
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

	// tokenTTL is how long a minted admin token stays valid. Zero means no
	// expiry claim.
	tokenTTL time.Duration
)

// Init generates a fresh ed25519 key pair at process start. Tokens minted
// before a restart no longer verify afterward — acceptable since the admin
// surface itself has no durable state either (spec Non-goal).
func Init() {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		fmt.Printf("auth: failed to generate ed25519 key pair: %v\n", err)
		os.Exit(1)
	}
	tokenTTL = parseTokenTTL()
}

// InitFromPath loads a fixed ed25519 key pair from disk, e.g. so admin
// tokens survive a server restart.
func InitFromPath(privatePath, publicPath string) error {
	privData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("auth: failed to read private key file: %w", err)
	}
	pubData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("auth: failed to read public key file: %w", err)
	}
	privateKey = ed25519.PrivateKey(privData)
	publicKey = ed25519.PublicKey(pubData)
	tokenTTL = parseTokenTTL()
	return nil
}

func parseTokenTTL() time.Duration {
	raw := os.Getenv("ADMIN_TOKEN_TTL")
	if raw == "" || raw == "never" || raw == "0" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		fmt.Printf("auth: invalid ADMIN_TOKEN_TTL %q, ignoring: %v\n", raw, err)
		return 0
	}
	return d
}

// CreateAdminToken signs a JWT whose only claim is admin=true, scoped to
// lobbyID so a token minted for one admin-controlled lobby cannot silently
// gate another.
func CreateAdminToken(lobbyID string) (string, error) {
	claims := jwt.MapClaims{
		"admin":   true,
		"lobbyId": lobbyID,
	}
	if tokenTTL > 0 {
		claims["exp"] = time.Now().Add(tokenTTL).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateAdminToken verifies tokenString and that it was scoped to
// lobbyID, returning an error otherwise.
func AuthenticateAdminToken(tokenString, lobbyID string) error {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return fmt.Errorf("auth: jwt parse error: %w", err)
	}
	if !t.Valid {
		return fmt.Errorf("auth: invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("auth: invalid jwt claims")
	}
	isAdmin, _ := claims["admin"].(bool)
	if !isAdmin {
		return fmt.Errorf("auth: token does not carry the admin claim")
	}
	scopedLobby, _ := claims["lobbyId"].(string)
	if scopedLobby != lobbyID {
		return fmt.Errorf("auth: token is not scoped to this lobby")
	}
	return nil
}
