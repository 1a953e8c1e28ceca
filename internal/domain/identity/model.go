package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	RoleProvider = "provider"
	RolePatient  = "patient"
)

// Verification channels. Phone verification goes out over SMS.
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

var (
	ErrNotFound     = errors.New("account not found")
	ErrEmailTaken   = errors.New("email is already registered")
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// Provider maps to the provider table. PasswordHash is never serialized.
type Provider struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	FirstName       string    `db:"first_name" json:"first_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	Phone           *string   `db:"phone" json:"phone,omitempty"`
	Specialization  string    `db:"specialization" json:"specialization"`
	Qualifications  *string   `db:"qualifications" json:"qualifications,omitempty"`
	LicenseNumber   *string   `db:"license_number" json:"license_number,omitempty"`
	ConsultationFee *float64  `db:"consultation_fee" json:"consultation_fee,omitempty"`
	Active          bool      `db:"active" json:"active"`
	EmailVerified   bool      `db:"email_verified" json:"email_verified"`
	PhoneVerified   bool      `db:"phone_verified" json:"phone_verified"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Provider) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Patient maps to the patient table. PasswordHash is never serialized.
type Patient struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	Phone         *string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender        *string    `db:"gender" json:"gender,omitempty"`
	AddressLine1  *string    `db:"address_line1" json:"address_line1,omitempty"`
	AddressLine2  *string    `db:"address_line2" json:"address_line2,omitempty"`
	City          *string    `db:"city" json:"city,omitempty"`
	State         *string    `db:"state" json:"state,omitempty"`
	PostalCode    *string    `db:"postal_code" json:"postal_code,omitempty"`
	Country       *string    `db:"country" json:"country,omitempty"`
	Active        bool       `db:"active" json:"active"`
	EmailVerified bool       `db:"email_verified" json:"email_verified"`
	PhoneVerified bool       `db:"phone_verified" json:"phone_verified"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
