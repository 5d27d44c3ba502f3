package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer issues the JWT
const Issuer = "holdemsim-server"

// Audience is the intended JWT audience
const Audience = "holdemsim"

// Signer signs and validates player tokens
type Signer struct {
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey
}

// New returns a Signer for the key pair
func New(publicKey *rsa.PublicKey, privateKey *rsa.PrivateKey) *Signer {
	return &Signer{publicKey: publicKey, privateKey: privateKey}
}

// NewFromFiles loads a PEM-encoded RSA key pair from disk
func NewFromFiles(publicKeyPath, privateKeyPath string) (*Signer, error) {
	publicKey, err := loadPublicKey(publicKeyPath)
	if err != nil {
		return nil, err
	}

	privateKey, err := loadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, err
	}

	return New(publicKey, privateKey), nil
}

// Sign will sign a JWT for the player ID
func (s *Signer) Sign(playerID int64) (string, error) {
	token := jwtgo.NewWithClaims(jwtgo.SigningMethodRS256, jwtgo.RegisteredClaims{
		Audience: jwtgo.ClaimStrings{Audience},
		ID:       uuid.New().String(),
		IssuedAt: jwtgo.NewNumericDate(time.Now()),
		Issuer:   Issuer,
		Subject:  strconv.FormatInt(playerID, 10),
	})

	return token.SignedString(s.privateKey)
}

// ValidPlayerID will validate a signed JWT and return the player ID it was
// issued for
func (s *Signer) ValidPlayerID(signedString string) (int64, error) {
	token, err := jwtgo.ParseWithClaims(signedString, &jwtgo.RegisteredClaims{}, func(token *jwtgo.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtgo.SigningMethodRSA); !ok {
			return nil, errors.New("expected RS256 signing method")
		}

		return s.publicKey, nil
	})

	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*jwtgo.RegisteredClaims)
	if !ok {
		return 0, fmt.Errorf("expected jwt.RegisteredClaims, got %T", token.Claims)
	}

	if !containsAudience(claims.Audience, Audience) {
		return 0, errors.New("invalid audience")
	}

	if claims.Issuer != Issuer {
		return 0, errors.New("invalid issuer")
	}

	return strconv.ParseInt(claims.Subject, 10, 64)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return jwtgo.ParseRSAPublicKeyFromPEM(b)
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return jwtgo.ParseRSAPrivateKeyFromPEM(b)
}

func containsAudience(audiences jwtgo.ClaimStrings, target string) bool {
	for _, aud := range audiences {
		if aud == target {
			return true
		}
	}
	return false
}
