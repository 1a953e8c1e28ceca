package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG returns the PostgreSQL-backed Repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const availabilityCols = `id, provider_id, date, start_time, end_time, timezone,
	slot_duration, break_duration, is_recurring, recurrence_pattern, recurrence_end_date,
	appointment_type, location, pricing, special_requirements, notes, max_appointments,
	status, current_bookings, cancellation_reason, created_at, updated_at`

func scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability
	var locJSON, pricingJSON []byte
	err := row.Scan(&a.ID, &a.ProviderID, &a.Date, &a.StartTime, &a.EndTime, &a.Timezone,
		&a.SlotDuration, &a.BreakDuration, &a.IsRecurring, &a.RecurrencePattern, &a.RecurrenceEndDate,
		&a.AppointmentType, &locJSON, &pricingJSON, &a.SpecialRequirements, &a.Notes, &a.MaxAppointments,
		&a.Status, &a.CurrentBookings, &a.CancellationReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(locJSON, &a.Location); err != nil {
		return nil, fmt.Errorf("unmarshal location: %w", err)
	}
	if len(pricingJSON) > 0 {
		a.Pricing = &Pricing{}
		if err := json.Unmarshal(pricingJSON, a.Pricing); err != nil {
			return nil, fmt.Errorf("unmarshal pricing: %w", err)
		}
	}
	return &a, nil
}

const slotCols = `id, availability_id, provider_id, start_time, end_time, status,
	appointment_type, patient_id, booking_reference, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.AvailabilityID, &s.ProviderID, &s.StartTime, &s.EndTime, &s.Status,
		&s.AppointmentType, &s.PatientID, &s.BookingReference, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *repoPG) CreateAvailabilityWithSlots(ctx context.Context, a *Availability, slots []*Slot) error {
	if db.TxFromContext(ctx) != nil {
		return r.insertAvailabilityWithSlots(ctx, a, slots)
	}
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		return r.insertAvailabilityWithSlots(ctx, a, slots)
	})
}

func (r *repoPG) insertAvailabilityWithSlots(ctx context.Context, a *Availability, slots []*Slot) error {
	a.ID = uuid.New()

	locJSON, err := json.Marshal(a.Location)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	var pricingJSON []byte
	if a.Pricing != nil {
		if pricingJSON, err = json.Marshal(a.Pricing); err != nil {
			return fmt.Errorf("marshal pricing: %w", err)
		}
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO availability (id, provider_id, date, start_time, end_time, timezone,
			slot_duration, break_duration, is_recurring, recurrence_pattern, recurrence_end_date,
			appointment_type, location, pricing, special_requirements, notes, max_appointments, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		a.ID, a.ProviderID, a.Date, a.StartTime, a.EndTime, a.Timezone,
		a.SlotDuration, a.BreakDuration, a.IsRecurring, a.RecurrencePattern, a.RecurrenceEndDate,
		a.AppointmentType, locJSON, pricingJSON, a.SpecialRequirements, a.Notes, a.MaxAppointments, a.Status)
	if err != nil {
		return err
	}

	for _, s := range slots {
		s.ID = uuid.New()
		s.AvailabilityID = a.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO slot (id, availability_id, provider_id, start_time, end_time, status, appointment_type)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, s.AvailabilityID, s.ProviderID, s.StartTime, s.EndTime, s.Status, s.AppointmentType)
		if err != nil {
			return mapExclusionViolation(err)
		}
	}
	return nil
}

func (r *repoPG) GetAvailability(ctx context.Context, id uuid.UUID) (*Availability, error) {
	a, err := scanAvailability(r.conn(ctx).QueryRow(ctx,
		`SELECT `+availabilityCols+` FROM availability WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAvailabilityNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) UpdateAvailabilityStatus(ctx context.Context, id uuid.UUID, status, reason string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE availability
		SET status = $2, cancellation_reason = COALESCE(NULLIF($3, ''), cancellation_reason), updated_at = NOW()
		WHERE id = $1`, id, status, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAvailabilityNotFound
	}
	return nil
}

func (r *repoPG) FindSlots(ctx context.Context, providerID uuid.UUID, from, to time.Time, status string) ([]*Slot, error) {
	query := `SELECT ` + slotCols + ` FROM slot
		WHERE provider_id = $1 AND start_time < $3 AND end_time > $2`
	args := []interface{}{providerID, from, to}
	if status == "" {
		query += ` AND status <> 'cancelled'`
	} else {
		query += ` AND status = $4`
		args = append(args, status)
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	s, err := scanSlot(r.conn(ctx).QueryRow(ctx,
		`SELECT `+slotCols+` FROM slot WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) UpdateSlot(ctx context.Context, s *Slot) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE slot SET status = $2, appointment_type = $3, patient_id = $4,
			booking_reference = $5, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Status, s.AppointmentType, s.PatientID, s.BookingReference)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *repoPG) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM slot WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *repoPG) DeleteSlotsByAvailability(ctx context.Context, availabilityID uuid.UUID, excludeStatus string) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM slot WHERE availability_id = $1 AND status <> $2`, availabilityID, excludeStatus)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) CountSlots(ctx context.Context, providerID uuid.UUID, from, to time.Time, status string) (int, error) {
	query := `SELECT COUNT(*) FROM slot WHERE provider_id = $1`
	args := []interface{}{providerID}
	idx := 2

	if !from.IsZero() {
		query += fmt.Sprintf(` AND start_time >= $%d`, idx)
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		query += fmt.Sprintf(` AND start_time < $%d`, idx)
		args = append(args, to)
		idx++
	}
	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, status)
	}

	var count int
	if err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repoPG) SearchSlots(ctx context.Context, c SearchCriteria) ([]*SlotResult, error) {
	query := `SELECT s.id, s.availability_id, s.provider_id, s.start_time, s.end_time,
			s.appointment_type, a.location, a.pricing
		FROM slot s
		JOIN availability a ON a.id = s.availability_id
		WHERE s.status = 'available'`
	var args []interface{}
	idx := 1

	if !c.From.IsZero() {
		query += fmt.Sprintf(` AND s.start_time >= $%d`, idx)
		args = append(args, c.From)
		idx++
	}
	if !c.To.IsZero() {
		query += fmt.Sprintf(` AND s.start_time < $%d`, idx)
		args = append(args, c.To)
		idx++
	}
	if c.ProviderID != uuid.Nil {
		query += fmt.Sprintf(` AND s.provider_id = $%d`, idx)
		args = append(args, c.ProviderID)
		idx++
	}
	if c.AppointmentType != "" {
		query += fmt.Sprintf(` AND s.appointment_type = $%d`, idx)
		args = append(args, c.AppointmentType)
		idx++
	}
	if c.MinDuration > 0 {
		// Keep only slots with at least this much of their span still ahead.
		query += fmt.Sprintf(` AND s.end_time >= NOW() + make_interval(mins => $%d)`, idx)
		args = append(args, c.MinDuration)
		idx++
	}
	query += ` ORDER BY s.start_time ASC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SlotResult
	for rows.Next() {
		var res SlotResult
		var locJSON, pricingJSON []byte
		if err := rows.Scan(&res.SlotID, &res.AvailabilityID, &res.ProviderID, &res.StartTime,
			&res.EndTime, &res.AppointmentType, &locJSON, &pricingJSON); err != nil {
			return nil, err
		}
		if len(locJSON) > 0 {
			res.Location = &Location{}
			if err := json.Unmarshal(locJSON, res.Location); err != nil {
				return nil, fmt.Errorf("unmarshal location: %w", err)
			}
		}
		if len(pricingJSON) > 0 {
			res.Pricing = &Pricing{}
			if err := json.Unmarshal(pricingJSON, res.Pricing); err != nil {
				return nil, fmt.Errorf("unmarshal pricing: %w", err)
			}
		}
		items = append(items, &res)
	}
	return items, rows.Err()
}

func (r *repoPG) ListSlotsByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]*Slot, int, error) {
	where := ` FROM slot WHERE provider_id = $1`
	args := []interface{}{providerID}
	idx := 2

	if !from.IsZero() {
		where += fmt.Sprintf(` AND start_time >= $%d`, idx)
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		where += fmt.Sprintf(` AND start_time < $%d`, idx)
		args = append(args, to)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + slotCols + where + fmt.Sprintf(` ORDER BY start_time ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// mapExclusionViolation turns the slot table's no-overlap exclusion
// constraint into a ConflictError, so a creation racing past the
// in-transaction conflict check still surfaces as a conflict instead of a
// bare database error.
func mapExclusionViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
		return &ConflictError{}
	}
	return err
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
