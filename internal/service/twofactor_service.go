package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/careerlab/careerlab-os/internal/models"
	appErrors "github.com/careerlab/careerlab-os/pkg/errors"
)

type twoFactorUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetTOTPSecret(ctx context.Context, id, secret string) error
}

// TwoFactorSetup carries what the client needs to enrol an authenticator
// app. The secret is shown once at setup and never again.
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	ProvURI    string `json:"provisioning_uri"`
	Issuer     string `json:"issuer"`
	AccountFor string `json:"account"`
}

// VerifyCodeRequest carries a 6-digit TOTP code.
type VerifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// TwoFactorStatus reports enrolment state.
type TwoFactorStatus struct {
	Enabled bool `json:"enabled"`
}

const twoFactorIssuer = "Career Lab OS"

// TwoFactorService provisions and verifies TOTP second factors. Codes are
// accepted across a generous skew window to absorb clock drift on phones.
type TwoFactorService struct {
	users     twoFactorUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTwoFactorService constructs the 2FA service.
func NewTwoFactorService(users twoFactorUserRepository, validate *validator.Validate, logger *zap.Logger) *TwoFactorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TwoFactorService{users: users, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Status reports whether the user has a second factor enrolled.
func (s *TwoFactorService) Status(ctx context.Context, userID string) (*TwoFactorStatus, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TwoFactorStatus{Enabled: user.TwoFactorEnabled()}, nil
}

// Setup provisions a fresh TOTP secret for the user, replacing any
// previous enrolment.
func (s *TwoFactorService) Setup(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      twoFactorIssuer,
		AccountName: user.Email,
		SecretSize:  20,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate secret")
	}

	if err := s.users.SetTOTPSecret(ctx, userID, key.Secret()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store secret")
	}

	return &TwoFactorSetup{
		Secret:     key.Secret(),
		ProvURI:    key.URL(),
		Issuer:     twoFactorIssuer,
		AccountFor: user.Email,
	}, nil
}

// Verify checks a submitted code against the user's enrolled secret.
func (s *TwoFactorService) Verify(ctx context.Context, userID, code string) error {
	if err := s.validator.Struct(VerifyCodeRequest{Code: code}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "code must be 6 digits")
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled() {
		return appErrors.Clone(appErrors.ErrValidation, "2FA setup not initiated")
	}

	valid, err := totp.ValidateCustom(code, *user.TOTPSecret, s.now(), totp.ValidateOpts{
		Period:    30,
		Skew:      4,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate code")
	}
	if !valid {
		return appErrors.Clone(appErrors.ErrUnauthorized, "invalid verification code")
	}
	return nil
}

func (s *TwoFactorService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}
