package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/turo-backend/internal/config"
)

// Token uses. A sign-in token can only be redeemed; an ID token can only
// authenticate calls.
const (
	UseSignIn = "signin"
	UseID     = "id"
)

// ErrWrongTokenUse is returned when a valid token is presented for the other purpose.
var ErrWrongTokenUse = errors.New("token used for wrong purpose")

// Claims holds the JWT payload fields. Subject is the identity ID.
type Claims struct {
	TokenUse string `json:"token_use"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 JWTs.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	signInTTL  time.Duration
	idTTL      time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return NewProviderWithKeys(privKey, pubKey, cfg.JWTIssuer, cfg.SignInTokenTTL, cfg.IDTokenTTL), nil
}

func NewProviderWithKeys(priv *rsa.PrivateKey, pub *rsa.PublicKey, issuer string, signInTTL, idTTL time.Duration) *Provider {
	return &Provider{privateKey: priv, publicKey: pub, issuer: issuer, signInTTL: signInTTL, idTTL: idTTL}
}

// MintSignIn issues a short-lived sign-in token bound to identityID.
func (p *Provider) MintSignIn(identityID string) (string, error) {
	return p.sign(identityID, "", UseSignIn, p.signInTTL)
}

// MintID issues an ID token used as a Bearer credential on RPC calls.
func (p *Provider) MintID(identityID, email string) (string, error) {
	return p.sign(identityID, email, UseID, p.idTTL)
}

func (p *Provider) sign(subject, email, use string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenUse: use,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

// Verify parses tokenStr and checks its signature, expiry, issuer and use.
func (p *Provider) Verify(tokenStr, use string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	}, jwt.WithIssuer(p.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	if claims.TokenUse != use {
		return nil, ErrWrongTokenUse
	}
	return claims, nil
}
