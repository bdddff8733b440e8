package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/turo-backend/internal/domain"
	"github.com/turo-backend/internal/infrastructure/mail"
	jwtinfra "github.com/turo-backend/internal/infrastructure/jwt"
	"github.com/turo-backend/internal/pkg/validate"
)

// Passcodes are uniformly drawn from [codeMin, codeMin+codeSpan).
const (
	codeMin  = 100000
	codeSpan = 900000
)

// defaultOTPRetention keeps an expired passcode row long enough for a late
// verify to be told it expired rather than that it never existed.
const defaultOTPRetention = 24 * time.Hour

type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,loose_email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"otp" validate:"required"`
}

type RedeemRequest struct {
	Token string `json:"token" validate:"required"`
}

type Service interface {
	// RequestCode issues a fresh passcode for the email and mails it.
	RequestCode(ctx context.Context, req RequestCodeRequest) error
	// VerifyCode consumes a matching passcode and returns a sign-in token.
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (string, error)
	// RedeemSignInToken exchanges a sign-in token for an ID token.
	RedeemSignInToken(ctx context.Context, req RedeemRequest) (string, error)
}

type otpStore interface {
	Put(ctx context.Context, p *domain.OneTimePasscode) error
	Get(ctx context.Context, email string) (*domain.OneTimePasscode, error)
	Delete(ctx context.Context, email string) error
}

type identityStore interface {
	Get(ctx context.Context, identityID string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, email string) (*domain.Identity, error)
}

type tokenIssuer interface {
	MintSignIn(identityID string) (string, error)
	MintID(identityID, email string) (string, error)
	Verify(tokenStr, use string) (*jwtinfra.Claims, error)
}

type service struct {
	otps       otpStore
	identities identityStore
	mailer     mail.Sender
	tokens     tokenIssuer
	otpTTL     time.Duration
	retention  time.Duration
	now        func() time.Time
}

type ServiceDeps struct {
	OTPRepo      otpStore
	IdentityRepo identityStore
	Mailer       mail.Sender
	Tokens       tokenIssuer
	OTPTTL       time.Duration
	// OTPRetention is how long past expiry the row may be reaped. Defaults to 24h.
	OTPRetention time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	retention := deps.OTPRetention
	if retention <= 0 {
		retention = defaultOTPRetention
	}
	return &service{
		otps:       deps.OTPRepo,
		identities: deps.IdentityRepo,
		mailer:     deps.Mailer,
		tokens:     deps.Tokens,
		otpTTL:     deps.OTPTTL,
		retention:  retention,
		now:        now,
	}
}

func (s *service) RequestCode(ctx context.Context, req RequestCodeRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("a valid email address is required: %w", domain.ErrBadRequest)
	}

	code, err := newCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expires := s.now().Add(s.otpTTL)
	p := &domain.OneTimePasscode{
		Email:   req.Email,
		Code:    code,
		Expires: expires,
		TTL:     expires.Add(s.retention).Unix(),
	}
	if err := s.otps.Put(ctx, p); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	msg, err := mail.OTPMessage(req.Email, code, s.otpTTL)
	if err != nil {
		return err
	}
	// The stored passcode is kept on send failure; a new request overwrites it.
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Error("send otp email failed", "email", req.Email, "err", err)
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", codeMin+n.Int64()), nil
}

func (s *service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (string, error) {
	if err := validate.Struct(&req); err != nil {
		return "", fmt.Errorf("email and otp are required: %w", domain.ErrBadRequest)
	}

	p, err := s.otps.Get(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("otp not found, it may have expired or never existed: %w", domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("load otp: %w", err)
	}

	if p.Expired(s.now()) {
		if err := s.otps.Delete(ctx, req.Email); err != nil {
			return "", fmt.Errorf("delete expired otp: %w", err)
		}
		return "", fmt.Errorf("the otp has expired, request a new one: %w", domain.ErrExpired)
	}
	if p.Code != req.Code {
		return "", fmt.Errorf("the otp is incorrect: %w", domain.ErrForbidden)
	}

	if err := s.otps.Delete(ctx, req.Email); err != nil {
		return "", fmt.Errorf("consume otp: %w", err)
	}

	ident, err := s.identities.GetByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		ident, err = s.identities.Create(ctx, req.Email)
		if err != nil {
			return "", fmt.Errorf("create identity: %w", err)
		}
		slog.Info("identity created", "identity_id", ident.IdentityID)
	case err != nil:
		return "", fmt.Errorf("error retrieving user account: %w", err)
	}

	tok, err := s.tokens.MintSignIn(ident.IdentityID)
	if err != nil {
		return "", fmt.Errorf("mint sign-in token: %w", err)
	}
	return tok, nil
}

func (s *service) RedeemSignInToken(ctx context.Context, req RedeemRequest) (string, error) {
	if err := validate.Struct(&req); err != nil {
		return "", fmt.Errorf("token is required: %w", domain.ErrBadRequest)
	}

	claims, err := s.tokens.Verify(req.Token, jwtinfra.UseSignIn)
	if err != nil {
		return "", fmt.Errorf("invalid sign-in token: %w", domain.ErrUnauthorized)
	}

	ident, err := s.identities.Get(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("identity no longer exists: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return "", fmt.Errorf("load identity: %w", err)
	}
	if ident.Disabled {
		return "", fmt.Errorf("account is disabled: %w", domain.ErrForbidden)
	}

	tok, err := s.tokens.MintID(ident.IdentityID, ident.Email)
	if err != nil {
		return "", fmt.Errorf("mint id token: %w", err)
	}
	return tok, nil
}
