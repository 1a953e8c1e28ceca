package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type Service struct {
	providers ProviderRepository
	patients  PatientRepository
}

func NewService(providers ProviderRepository, patients PatientRepository) *Service {
	return &Service{providers: providers, patients: patients}
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// -- Provider --

func (s *Service) RegisterProvider(ctx context.Context, p *Provider, password string) error {
	p.Email = NormalizeEmail(p.Email)
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.providers.GetByEmail(ctx, p.Email); err == nil {
		return ErrEmailTaken
	}
	p.PasswordHash = hash
	p.Active = true
	p.EmailVerified = false
	p.PhoneVerified = false
	return s.providers.Create(ctx, p)
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *Service) GetProviderByEmail(ctx context.Context, email string) (*Provider, error) {
	return s.providers.GetByEmail(ctx, NormalizeEmail(email))
}

// FindProvider resolves a provider for scheduling. Inactive accounts are
// reported as not found so no new availability can be attached to them.
func (s *Service) FindProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) UpdateProviderProfile(ctx context.Context, p *Provider) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	return s.providers.Update(ctx, p)
}

func (s *Service) ListProviders(ctx context.Context, limit, offset int) ([]*Provider, int, error) {
	return s.providers.List(ctx, limit, offset)
}

// -- Patient --

func (s *Service) RegisterPatient(ctx context.Context, p *Patient, password string) error {
	p.Email = NormalizeEmail(p.Email)
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.patients.GetByEmail(ctx, p.Email); err == nil {
		return ErrEmailTaken
	}
	p.PasswordHash = hash
	p.Active = true
	p.EmailVerified = false
	p.PhoneVerified = false
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	return s.patients.GetByEmail(ctx, NormalizeEmail(email))
}

func (s *Service) UpdatePatientProfile(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// -- Verification --

// MarkVerified flips the verified flag for one contact channel on a provider
// or patient account.
func (s *Service) MarkVerified(ctx context.Context, role string, id uuid.UUID, channel string) error {
	if channel != ChannelEmail && channel != ChannelPhone {
		return fmt.Errorf("unknown verification channel %q", channel)
	}
	switch role {
	case RoleProvider:
		p, err := s.providers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if channel == ChannelEmail {
			p.EmailVerified = true
		} else {
			p.PhoneVerified = true
		}
		return s.providers.Update(ctx, p)
	case RolePatient:
		p, err := s.patients.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if channel == ChannelEmail {
			p.EmailVerified = true
		} else {
			p.PhoneVerified = true
		}
		return s.patients.Update(ctx, p)
	default:
		return fmt.Errorf("unknown role %q", role)
	}
}
