package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/identity"
	tokens "github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/internal/platform/notification"
)

// Config carries the token signing and lifetime settings the service needs.
type Config struct {
	JWT        tokens.JWTConfig
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CodeTTL    time.Duration
}

// Service implements registration, login, token rotation, and account
// verification on top of the identity domain.
type Service struct {
	accounts      *identity.Service
	refreshTokens TokenRepository
	codes         CodeStore
	notifier      *notification.Manager
	cfg           Config
}

func NewService(accounts *identity.Service, refreshTokens TokenRepository, codes CodeStore, notifier *notification.Manager, cfg Config) *Service {
	return &Service{
		accounts:      accounts,
		refreshTokens: refreshTokens,
		codes:         codes,
		notifier:      notifier,
		cfg:           cfg,
	}
}

// RegisterProvider creates a provider account and signs it in.
func (s *Service) RegisterProvider(ctx context.Context, p *identity.Provider, password string) (*TokenPair, error) {
	if err := s.accounts.RegisterProvider(ctx, p, password); err != nil {
		return nil, err
	}
	s.sendWelcome(ctx, p.Email, p.FullName(), identity.RoleProvider)
	return s.issueTokens(ctx, p.ID, identity.RoleProvider)
}

// RegisterPatient creates a patient account and signs it in.
func (s *Service) RegisterPatient(ctx context.Context, p *identity.Patient, password string) (*TokenPair, error) {
	if err := s.accounts.RegisterPatient(ctx, p, password); err != nil {
		return nil, err
	}
	s.sendWelcome(ctx, p.Email, p.FullName(), identity.RolePatient)
	return s.issueTokens(ctx, p.ID, identity.RolePatient)
}

// sendWelcome is best effort; registration succeeds even when the mail fails.
func (s *Service) sendWelcome(ctx context.Context, email, name, role string) {
	if s.notifier == nil {
		return
	}
	_, _ = s.notifier.SendFromTemplate(ctx, notification.TemplateWelcome, map[string]string{
		"name": name,
		"role": role,
	}, email)
}

// Login verifies the credentials for the given role and issues a token pair.
// Unknown addresses, wrong passwords, and deactivated accounts all come back
// as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password, role string) (*TokenPair, error) {
	var (
		id     uuid.UUID
		hash   string
		active bool
	)
	switch role {
	case identity.RoleProvider:
		p, err := s.accounts.GetProviderByEmail(ctx, email)
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		if err != nil {
			return nil, err
		}
		id, hash, active = p.ID, p.PasswordHash, p.Active
	case identity.RolePatient:
		p, err := s.accounts.GetPatientByEmail(ctx, email)
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		if err != nil {
			return nil, err
		}
		id, hash, active = p.ID, p.PasswordHash, p.Active
	default:
		return nil, ErrUnknownRole
	}

	if !active || !identity.CheckPassword(hash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, id, role)
}

// Refresh exchanges a live refresh token for a new pair. The presented token
// is revoked in the exchange, so each refresh token is good exactly once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := tokens.ParseToken(s.cfg.JWT, refreshToken)
	if err != nil || claims.TokenType != tokens.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	rec, err := s.refreshTokens.GetByHash(ctx, tokens.HashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if rec.RevokedAt != nil || rec.Expired(time.Now().UTC()) {
		return nil, ErrInvalidRefreshToken
	}

	if err := s.refreshTokens.Revoke(ctx, rec.ID); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, rec.UserID, rec.Role)
}

// Logout revokes the presented refresh token, or every token the user holds
// when everywhere is set.
func (s *Service) Logout(ctx context.Context, refreshToken string, everywhere bool) error {
	rec, err := s.refreshTokens.GetByHash(ctx, tokens.HashToken(refreshToken))
	if err != nil {
		return err
	}
	if everywhere {
		_, err = s.refreshTokens.RevokeAllForUser(ctx, rec.UserID)
		return err
	}
	return s.refreshTokens.Revoke(ctx, rec.ID)
}

// RequestVerification generates a one-time code for the account's email or
// phone and hands it to the notification sender. Unknown addresses succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *Service) RequestVerification(ctx context.Context, role, channel, email string) error {
	if channel != identity.ChannelEmail && channel != identity.ChannelPhone {
		return ErrUnknownChannel
	}
	acct, err := s.lookupAccount(ctx, role, email)
	if errors.Is(err, identity.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}
	if err := s.codes.Set(ctx, verificationKey(role, acct.id, channel), code, s.cfg.CodeTTL); err != nil {
		return err
	}

	data := map[string]string{
		"name":        acct.name,
		"code":        code,
		"ttl_minutes": strconv.Itoa(int(s.cfg.CodeTTL.Minutes())),
	}
	if channel == identity.ChannelEmail {
		_, err = s.notifier.SendFromTemplate(ctx, notification.TemplateEmailVerification, data, acct.email)
		return err
	}
	if acct.phone == "" {
		return fmt.Errorf("no phone number on file")
	}
	_, err = s.notifier.SendFromTemplate(ctx, notification.TemplatePhoneVerification, data, acct.phone)
	return err
}

// ConfirmVerification checks the submitted code and flips the account's
// verified flag for the channel. Codes are single-use.
func (s *Service) ConfirmVerification(ctx context.Context, role, channel, email, code string) error {
	if channel != identity.ChannelEmail && channel != identity.ChannelPhone {
		return ErrUnknownChannel
	}
	acct, err := s.lookupAccount(ctx, role, email)
	if errors.Is(err, identity.ErrNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}

	key := verificationKey(role, acct.id, channel)
	stored, err := s.codes.Get(ctx, key)
	if err != nil {
		return err
	}
	if stored == "" || stored != code {
		return ErrInvalidCode
	}
	if err := s.codes.Delete(ctx, key); err != nil {
		return err
	}
	return s.accounts.MarkVerified(ctx, role, acct.id, channel)
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID, role string) (*TokenPair, error) {
	access, err := tokens.GenerateAccessToken(s.cfg.JWT, userID.String(), role, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := tokens.GenerateRefreshToken(s.cfg.JWT, userID.String(), role, s.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}

	rec := &RefreshToken{
		UserID:    userID,
		Role:      role,
		TokenHash: tokens.HashToken(refresh),
		ExpiresAt: time.Now().UTC().Add(s.cfg.RefreshTTL),
	}
	if err := s.refreshTokens.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessTTL.Seconds()),
		UserID:       userID,
		Role:         role,
	}, nil
}

// accountRef is the slice of an identity record the verification flows need.
type accountRef struct {
	id    uuid.UUID
	name  string
	email string
	phone string
}

func (s *Service) lookupAccount(ctx context.Context, role, email string) (*accountRef, error) {
	switch role {
	case identity.RoleProvider:
		p, err := s.accounts.GetProviderByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		ref := &accountRef{id: p.ID, name: p.FullName(), email: p.Email}
		if p.Phone != nil {
			ref.phone = *p.Phone
		}
		return ref, nil
	case identity.RolePatient:
		p, err := s.accounts.GetPatientByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		ref := &accountRef{id: p.ID, name: p.FullName(), email: p.Email}
		if p.Phone != nil {
			ref.phone = *p.Phone
		}
		return ref, nil
	}
	return nil, ErrUnknownRole
}

func verificationKey(role string, id uuid.UUID, channel string) string {
	return role + ":" + id.String() + ":" + channel
}
