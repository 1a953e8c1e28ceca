package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lifecycle statuses of an availability record.
const (
	StatusAvailable   = "available"
	StatusBooked      = "booked"
	StatusCancelled   = "cancelled"
	StatusBlocked     = "blocked"
	StatusMaintenance = "maintenance"
)

// Lifecycle statuses of a slot.
const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
	SlotCancelled = "cancelled"
	SlotBlocked   = "blocked"
)

// Recurrence patterns.
const (
	PatternDaily   = "daily"
	PatternWeekly  = "weekly"
	PatternMonthly = "monthly"
)

// Common errors returned by the availability API.
var (
	ErrProviderNotFound     = errors.New("provider not found")
	ErrSlotNotFound         = errors.New("slot not found")
	ErrAvailabilityNotFound = errors.New("availability not found")
	ErrSlotBooked           = errors.New("slot is booked and cannot be modified")
)

// ValidationError aggregates every configuration failure so clients can fix
// the whole request in one round trip. A non-empty list always rejects the
// request; there is no partial acceptance.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid availability configuration: " + strings.Join(e.Errors, "; ")
}

// ConflictError reports which requested slots overlap existing availability.
// Conflicts is empty when the overlap was caught by the database exclusion
// constraint rather than the in-transaction check.
type ConflictError struct {
	Conflicts []GeneratedSlot
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return "requested slots overlap existing availability"
	}
	return fmt.Sprintf("%d of the requested slots overlap existing availability", len(e.Conflicts))
}

// Location describes where the appointments in a window take place. A Type
// of "virtual" marks remote consultations; anything else is a physical site.
type Location struct {
	Type         string `json:"type"`
	Address      string `json:"address,omitempty"`
	Room         string `json:"room,omitempty"`
	Building     string `json:"building,omitempty"`
	Floor        string `json:"floor,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Pricing carries the fee information shown to patients during search.
type Pricing struct {
	BaseFee           float64 `json:"base_fee"`
	Currency          string  `json:"currency,omitempty"`
	InsuranceAccepted bool    `json:"insurance_accepted"`
}

// Window is one availability-creation request: a provider's bookable span on
// a calendar date with the slot layout and an optional recurrence rule to
// expand it. Dates are "YYYY-MM-DD", times 24-hour "HH:mm" in Timezone, and
// durations are minutes.
type Window struct {
	ProviderID          uuid.UUID `json:"provider_id"`
	Date                string    `json:"date"`
	StartTime           string    `json:"start_time"`
	EndTime             string    `json:"end_time"`
	Timezone            string    `json:"timezone"`
	SlotDuration        int       `json:"slot_duration"`
	BreakDuration       int       `json:"break_duration"`
	IsRecurring         bool      `json:"is_recurring"`
	RecurrencePattern   string    `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate   string    `json:"recurrence_end_date,omitempty"`
	AppointmentType     string    `json:"appointment_type"`
	Location            Location  `json:"location"`
	Pricing             *Pricing  `json:"pricing,omitempty"`
	SpecialRequirements []string  `json:"special_requirements,omitempty"`
	Notes               string    `json:"notes,omitempty"`
	MaxAppointments     int       `json:"max_appointments"`
}

// GeneratedSlot is one expanded slot before persistence. The UTC instants
// are authoritative for ordering and conflict checks; the civil strings echo
// the provider's wall-clock view of the same span.
type GeneratedSlot struct {
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	StartInstant time.Time `json:"start_instant"`
	EndInstant   time.Time `json:"end_instant"`
}

// Availability maps to the availability table: the persisted parent record a
// creation request produces, owning its expanded slot rows.
type Availability struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	ProviderID          uuid.UUID  `db:"provider_id" json:"provider_id"`
	Date                time.Time  `db:"date" json:"date"`
	StartTime           string     `db:"start_time" json:"start_time"`
	EndTime             string     `db:"end_time" json:"end_time"`
	Timezone            string     `db:"timezone" json:"timezone"`
	SlotDuration        int        `db:"slot_duration" json:"slot_duration"`
	BreakDuration       int        `db:"break_duration" json:"break_duration"`
	IsRecurring         bool       `db:"is_recurring" json:"is_recurring"`
	RecurrencePattern   *string    `db:"recurrence_pattern" json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate   *time.Time `db:"recurrence_end_date" json:"recurrence_end_date,omitempty"`
	AppointmentType     string     `db:"appointment_type" json:"appointment_type"`
	Location            Location   `db:"location" json:"location"`
	Pricing             *Pricing   `db:"pricing" json:"pricing,omitempty"`
	SpecialRequirements []string   `db:"special_requirements" json:"special_requirements,omitempty"`
	Notes               *string    `db:"notes" json:"notes,omitempty"`
	MaxAppointments     int        `db:"max_appointments" json:"max_appointments"`
	Status              string     `db:"status" json:"status"`
	CurrentBookings     int        `db:"current_bookings" json:"current_bookings"`
	CancellationReason  *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Slot maps to the slot table: one bookable unit of time expanded from an
// availability record. Non-cancelled slots for the same provider never
// overlap; the booking flow sets PatientID and BookingReference when a slot
// transitions to booked.
type Slot struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	AvailabilityID   uuid.UUID  `db:"availability_id" json:"availability_id"`
	ProviderID       uuid.UUID  `db:"provider_id" json:"provider_id"`
	StartTime        time.Time  `db:"start_time" json:"start_time"`
	EndTime          time.Time  `db:"end_time" json:"end_time"`
	Status           string     `db:"status" json:"status"`
	AppointmentType  string     `db:"appointment_type" json:"appointment_type"`
	PatientID        *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	BookingReference *string    `db:"booking_reference" json:"booking_reference,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// SlotPatch is the set of fields a provider may change on an unbooked slot.
// Empty fields are left untouched.
type SlotPatch struct {
	Status          string `json:"status,omitempty"`
	AppointmentType string `json:"appointment_type,omitempty"`
}

// DateRange is the span of calendar dates a creation call covered, in
// "YYYY-MM-DD" form.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreateResult reports what CreateAvailability persisted.
type CreateResult struct {
	AvailabilityID uuid.UUID `json:"availability_id"`
	SlotsCreated   int       `json:"slots_created"`
	DateRange      DateRange `json:"date_range"`
}

// DeleteResult reports what DeleteSlot removed. SeriesCancelled is set when
// a recurring series was torn down and its parent record marked cancelled.
type DeleteResult struct {
	SlotsDeleted    int  `json:"slots_deleted"`
	SeriesCancelled bool `json:"series_cancelled"`
}

// Stats aggregates a provider's slot counts. BookingRate is booked over
// total as a percentage, 0 when the provider has no slots.
type Stats struct {
	TotalSlots     int     `json:"total_slots"`
	BookedSlots    int     `json:"booked_slots"`
	AvailableSlots int     `json:"available_slots"`
	BookingRate    float64 `json:"booking_rate"`
}

// SearchCriteria filters the public slot search. From/To bound the UTC start
// instant (To exclusive, zero values unbounded); MinDuration keeps only
// slots whose end lies at least that many minutes in the future. VirtualOnly
// and InPersonOnly may both be set, in which case the result is their
// intersection, which is empty by construction.
type SearchCriteria struct {
	From            time.Time
	To              time.Time
	ProviderID      uuid.UUID // uuid.Nil matches any provider
	AppointmentType string
	MinDuration     int
	Specialization  string
	LocationQuery   string
	VirtualOnly     bool
	InPersonOnly    bool
	MaxPrice        *float64
}

// SlotResult is one row of the public slot search: the slot joined with the
// owning record's location and pricing, enriched with the provider's name
// and specialization.
type SlotResult struct {
	SlotID          uuid.UUID `json:"slot_id"`
	AvailabilityID  uuid.UUID `json:"availability_id"`
	ProviderID      uuid.UUID `json:"provider_id"`
	ProviderName    string    `json:"provider_name,omitempty"`
	Specialization  string    `json:"specialization,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	AppointmentType string    `json:"appointment_type"`
	Location        *Location `json:"location,omitempty"`
	Pricing         *Pricing  `json:"pricing,omitempty"`
}
