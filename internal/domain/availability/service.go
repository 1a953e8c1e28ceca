package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProviderInfo is the slice of a provider record this package needs for
// existence checks and search enrichment.
type ProviderInfo struct {
	ID             uuid.UUID
	FullName       string
	Specialization string
}

// ProviderDirectory resolves providers without coupling this package to the
// identity domain. Implementations return ErrProviderNotFound for unknown or
// deactivated providers.
type ProviderDirectory interface {
	FindProvider(ctx context.Context, id uuid.UUID) (*ProviderInfo, error)
}

// TxRunner executes fn inside a database transaction carried on the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Service implements availability window and slot management.
type Service struct {
	repo          Repository
	providers     ProviderDirectory
	tx            TxRunner
	horizonMonths int
}

// NewService wires the availability service. horizonMonths bounds recurring
// windows that carry no explicit end date.
func NewService(repo Repository, providers ProviderDirectory, tx TxRunner, horizonMonths int) *Service {
	return &Service{repo: repo, providers: providers, tx: tx, horizonMonths: horizonMonths}
}

// CreateAvailability validates the window, expands it into concrete slots,
// rejects any that overlap the provider's existing schedule, and persists the
// window together with its slots atomically.
func (s *Service) CreateAvailability(ctx context.Context, w Window) (*CreateResult, error) {
	if _, err := s.providers.FindProvider(ctx, w.ProviderID); err != nil {
		return nil, err
	}

	if w.MaxAppointments == 0 {
		w.MaxAppointments = 1
	}
	if errs := ValidateWindow(w); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	loc, err := LoadZone(w.Timezone)
	if err != nil {
		return nil, err
	}
	startDate, err := ParseDate(w.Date)
	if err != nil {
		return nil, err
	}

	endDate := startDate
	var generated []GeneratedSlot
	if w.IsRecurring {
		if w.RecurrenceEndDate != "" {
			if endDate, err = ParseDate(w.RecurrenceEndDate); err != nil {
				return nil, err
			}
		} else {
			endDate = startDate.AddDate(0, s.horizonMonths, 0)
		}
		generated = GenerateRecurringSlots(w, w.RecurrencePattern, startDate, endDate, loc)
	} else {
		generated = GenerateSlotsForDay(startDate, w, loc)
	}
	if len(generated) == 0 {
		return nil, &ValidationError{Errors: []string{"window produces no bookable slots"}}
	}

	avail := newAvailability(w, startDate)
	err = s.tx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindSlots(ctx, w.ProviderID,
			generated[0].StartInstant, generated[len(generated)-1].EndInstant, "")
		if err != nil {
			return err
		}
		if conflicts := CheckOverlap(generated, existing); len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}

		slots := make([]*Slot, 0, len(generated))
		for _, g := range generated {
			slots = append(slots, &Slot{
				ProviderID:      w.ProviderID,
				StartTime:       g.StartInstant,
				EndTime:         g.EndInstant,
				Status:          SlotAvailable,
				AppointmentType: w.AppointmentType,
			})
		}
		return s.repo.CreateAvailabilityWithSlots(ctx, avail, slots)
	})
	if err != nil {
		return nil, err
	}

	return &CreateResult{
		AvailabilityID: avail.ID,
		SlotsCreated:   len(generated),
		DateRange:      DateRange{Start: startDate.Format(DateLayout), End: endDate.Format(DateLayout)},
	}, nil
}

func newAvailability(w Window, date time.Time) *Availability {
	a := &Availability{
		ProviderID:          w.ProviderID,
		Date:                date,
		StartTime:           w.StartTime,
		EndTime:             w.EndTime,
		Timezone:            w.Timezone,
		SlotDuration:        w.SlotDuration,
		BreakDuration:       w.BreakDuration,
		IsRecurring:         w.IsRecurring,
		AppointmentType:     w.AppointmentType,
		Location:            w.Location,
		Pricing:             w.Pricing,
		SpecialRequirements: w.SpecialRequirements,
		MaxAppointments:     w.MaxAppointments,
		Status:              StatusAvailable,
	}
	if w.IsRecurring {
		pattern := w.RecurrencePattern
		a.RecurrencePattern = &pattern
		if w.RecurrenceEndDate != "" {
			if end, err := ParseDate(w.RecurrenceEndDate); err == nil {
				a.RecurrenceEndDate = &end
			}
		}
	}
	if w.Notes != "" {
		notes := w.Notes
		a.Notes = &notes
	}
	return a
}

var validSlotUpdateStatuses = map[string]bool{
	SlotAvailable: true,
	SlotBlocked:   true,
	SlotCancelled: true,
}

// UpdateSlot applies a partial update to one of the provider's own slots.
// Booked slots cannot be modified.
func (s *Service) UpdateSlot(ctx context.Context, slotID, providerID uuid.UUID, patch SlotPatch) (*Slot, error) {
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.ProviderID != providerID {
		return nil, ErrSlotNotFound
	}
	if slot.Status == SlotBooked {
		return nil, ErrSlotBooked
	}

	if patch.Status != "" {
		if !validSlotUpdateStatuses[patch.Status] {
			return nil, &ValidationError{Errors: []string{
				fmt.Sprintf("invalid slot status %q: want available, blocked, or cancelled", patch.Status),
			}}
		}
		slot.Status = patch.Status
	}
	if patch.AppointmentType != "" {
		slot.AppointmentType = patch.AppointmentType
	}

	if err := s.repo.UpdateSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// DeleteSlot removes one of the provider's own slots. With deleteRecurring
// set and the slot belonging to a recurring window, every unbooked slot of
// the series is removed and the window is cancelled; booked slots survive.
func (s *Service) DeleteSlot(ctx context.Context, slotID, providerID uuid.UUID, deleteRecurring bool, reason string) (*DeleteResult, error) {
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.ProviderID != providerID {
		return nil, ErrSlotNotFound
	}
	if slot.Status == SlotBooked {
		return nil, ErrSlotBooked
	}

	if deleteRecurring {
		parent, err := s.repo.GetAvailability(ctx, slot.AvailabilityID)
		if err != nil {
			return nil, err
		}
		if parent.IsRecurring {
			result := &DeleteResult{SeriesCancelled: true}
			err = s.tx(ctx, func(ctx context.Context) error {
				n, err := s.repo.DeleteSlotsByAvailability(ctx, parent.ID, SlotBooked)
				if err != nil {
					return err
				}
				result.SlotsDeleted = n
				return s.repo.UpdateAvailabilityStatus(ctx, parent.ID, StatusCancelled, reason)
			})
			if err != nil {
				return nil, err
			}
			return result, nil
		}
	}

	if err := s.repo.DeleteSlot(ctx, slotID); err != nil {
		return nil, err
	}
	return &DeleteResult{SlotsDeleted: 1}, nil
}

// Stats reports slot utilization for a provider over an optional time range.
func (s *Service) Stats(ctx context.Context, providerID uuid.UUID, from, to time.Time) (*Stats, error) {
	total, err := s.repo.CountSlots(ctx, providerID, from, to, "")
	if err != nil {
		return nil, err
	}
	booked, err := s.repo.CountSlots(ctx, providerID, from, to, SlotBooked)
	if err != nil {
		return nil, err
	}
	available, err := s.repo.CountSlots(ctx, providerID, from, to, SlotAvailable)
	if err != nil {
		return nil, err
	}

	st := &Stats{TotalSlots: total, BookedSlots: booked, AvailableSlots: available}
	if total > 0 {
		st.BookingRate = float64(booked) / float64(total) * 100
	}
	return st, nil
}

// Search finds bookable slots across providers. Database filters narrow by
// time, provider, and appointment type; provider and location criteria are
// applied here after enrichment, and pagination runs last so the returned
// total counts every match.
func (s *Service) Search(ctx context.Context, c SearchCriteria, limit, offset int) ([]*SlotResult, int, error) {
	results, err := s.repo.SearchSlots(ctx, c)
	if err != nil {
		return nil, 0, err
	}

	providers := make(map[uuid.UUID]*ProviderInfo)
	filtered := make([]*SlotResult, 0, len(results))
	for _, res := range results {
		info, cached := providers[res.ProviderID]
		if !cached {
			info, err = s.providers.FindProvider(ctx, res.ProviderID)
			if err != nil && !errors.Is(err, ErrProviderNotFound) {
				return nil, 0, err
			}
			providers[res.ProviderID] = info
		}
		if info == nil {
			// Provider deactivated since the slot was written.
			continue
		}

		res.ProviderName = info.FullName
		res.Specialization = info.Specialization
		if !matchesCriteria(res, info, c) {
			continue
		}
		filtered = append(filtered, res)
	}

	total := len(filtered)
	if offset >= total {
		return []*SlotResult{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

func matchesCriteria(res *SlotResult, info *ProviderInfo, c SearchCriteria) bool {
	if c.Specialization != "" &&
		!strings.Contains(strings.ToLower(info.Specialization), strings.ToLower(c.Specialization)) {
		return false
	}
	if c.VirtualOnly && (res.Location == nil || res.Location.Type != "virtual") {
		return false
	}
	if c.InPersonOnly && (res.Location == nil || res.Location.Type == "virtual") {
		return false
	}
	if c.LocationQuery != "" {
		if res.Location == nil {
			return false
		}
		q := strings.ToLower(c.LocationQuery)
		if !strings.Contains(strings.ToLower(res.Location.City), q) &&
			!strings.Contains(strings.ToLower(res.Location.State), q) {
			return false
		}
	}
	// Slots without pricing pass any price ceiling.
	if c.MaxPrice != nil && res.Pricing != nil && res.Pricing.BaseFee > *c.MaxPrice {
		return false
	}
	return true
}

// ListByProvider returns a page of a provider's slots in a time range,
// ordered by start time. Unknown providers yield ErrProviderNotFound.
func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]*Slot, int, error) {
	if _, err := s.providers.FindProvider(ctx, providerID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListSlotsByProvider(ctx, providerID, from, to, limit, offset)
}
