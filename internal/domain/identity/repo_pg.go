package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

// -- Provider Repository --

type providerRepoPG struct {
	pool *pgxpool.Pool
}

func NewProviderRepo(pool *pgxpool.Pool) ProviderRepository {
	return &providerRepoPG{pool: pool}
}

func (r *providerRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const providerCols = `id, email, password_hash, first_name, last_name, phone,
	specialization, qualifications, license_number, consultation_fee,
	active, email_verified, phone_verified, created_at, updated_at`

func (r *providerRepoPG) Create(ctx context.Context, p *Provider) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO provider (
			id, email, password_hash, first_name, last_name, phone,
			specialization, qualifications, license_number, consultation_fee,
			active, email_verified, phone_verified
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.Email, p.PasswordHash, p.FirstName, p.LastName, p.Phone,
		p.Specialization, p.Qualifications, p.LicenseNumber, p.ConsultationFee,
		p.Active, p.EmailVerified, p.PhoneVerified,
	)
	return mapUniqueViolation(err)
}

func (r *providerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return scanProvider(r.conn(ctx).QueryRow(ctx, `SELECT `+providerCols+` FROM provider WHERE id = $1`, id))
}

func (r *providerRepoPG) GetByEmail(ctx context.Context, email string) (*Provider, error) {
	return scanProvider(r.conn(ctx).QueryRow(ctx, `SELECT `+providerCols+` FROM provider WHERE email = $1`, email))
}

func (r *providerRepoPG) Update(ctx context.Context, p *Provider) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE provider SET
			first_name=$2, last_name=$3, phone=$4, specialization=$5,
			qualifications=$6, license_number=$7, consultation_fee=$8,
			active=$9, email_verified=$10, phone_verified=$11, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Phone, p.Specialization,
		p.Qualifications, p.LicenseNumber, p.ConsultationFee,
		p.Active, p.EmailVerified, p.PhoneVerified,
	)
	return err
}

func (r *providerRepoPG) List(ctx context.Context, limit, offset int) ([]*Provider, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM provider`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+providerCols+` FROM provider ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var providers []*Provider
	for rows.Next() {
		p, err := scanProviderRows(rows)
		if err != nil {
			return nil, 0, err
		}
		providers = append(providers, p)
	}
	return providers, total, nil
}

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &p.Phone,
		&p.Specialization, &p.Qualifications, &p.LicenseNumber, &p.ConsultationFee,
		&p.Active, &p.EmailVerified, &p.PhoneVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProviderRows(rows pgx.Rows) (*Provider, error) {
	var p Provider
	err := rows.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &p.Phone,
		&p.Specialization, &p.Qualifications, &p.LicenseNumber, &p.ConsultationFee,
		&p.Active, &p.EmailVerified, &p.PhoneVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, email, password_hash, first_name, last_name, phone,
	date_of_birth, gender,
	address_line1, address_line2, city, state, postal_code, country,
	active, email_verified, phone_verified, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (
			id, email, password_hash, first_name, last_name, phone,
			date_of_birth, gender,
			address_line1, address_line2, city, state, postal_code, country,
			active, email_verified, phone_verified
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		p.ID, p.Email, p.PasswordHash, p.FirstName, p.LastName, p.Phone,
		p.DateOfBirth, p.Gender,
		p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode, p.Country,
		p.Active, p.EmailVerified, p.PhoneVerified,
	)
	return mapUniqueViolation(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE email = $1`, email))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			first_name=$2, last_name=$3, phone=$4, date_of_birth=$5, gender=$6,
			address_line1=$7, address_line2=$8, city=$9, state=$10, postal_code=$11, country=$12,
			active=$13, email_verified=$14, phone_verified=$15, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Phone, p.DateOfBirth, p.Gender,
		p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode, p.Country,
		p.Active, p.EmailVerified, p.PhoneVerified,
	)
	return err
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatientRows(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &p.Phone,
		&p.DateOfBirth, &p.Gender,
		&p.AddressLine1, &p.AddressLine2, &p.City, &p.State, &p.PostalCode, &p.Country,
		&p.Active, &p.EmailVerified, &p.PhoneVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPatientRows(rows pgx.Rows) (*Patient, error) {
	var p Patient
	err := rows.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &p.Phone,
		&p.DateOfBirth, &p.Gender,
		&p.AddressLine1, &p.AddressLine2, &p.City, &p.State, &p.PostalCode, &p.Country,
		&p.Active, &p.EmailVerified, &p.PhoneVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// mapUniqueViolation turns a Postgres unique violation into ErrEmailTaken so the
// duplicate-email race between check and insert still surfaces as a conflict.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
