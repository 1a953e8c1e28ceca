package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for availability records and their
// slots. Every method honors an in-flight transaction carried on the
// context, which is how the conflict check and the insert of a creation call
// share one transaction.
type Repository interface {
	// CreateAvailabilityWithSlots persists one availability record and all
	// of its slot rows atomically: a failure part way through leaves no
	// orphaned rows.
	CreateAvailabilityWithSlots(ctx context.Context, a *Availability, slots []*Slot) error
	GetAvailability(ctx context.Context, id uuid.UUID) (*Availability, error)
	// UpdateAvailabilityStatus moves the parent record to status and, when
	// reason is non-empty, records it as the cancellation reason.
	UpdateAvailabilityStatus(ctx context.Context, id uuid.UUID, status, reason string) error

	// FindSlots returns the provider's slots whose UTC interval intersects
	// [from, to). An empty status matches every non-cancelled slot, which
	// is the set conflict checks run against; a concrete status matches
	// exactly.
	FindSlots(ctx context.Context, providerID uuid.UUID, from, to time.Time, status string) ([]*Slot, error)
	GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
	UpdateSlot(ctx context.Context, s *Slot) error
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	// DeleteSlotsByAvailability removes every slot under the availability
	// record except those in excludeStatus, returning how many went.
	DeleteSlotsByAvailability(ctx context.Context, availabilityID uuid.UUID, excludeStatus string) (int, error)
	// CountSlots counts the provider's slots, optionally bounded to
	// [from, to) on the start instant (zero times are unbounded) and
	// filtered to one status ("" counts all).
	CountSlots(ctx context.Context, providerID uuid.UUID, from, to time.Time, status string) (int, error)

	// SearchSlots runs the store-level half of the public search: available
	// slots joined with their record's location and pricing, filtered and
	// ordered by ascending UTC start. In-memory filters and pagination are
	// applied by the service on top.
	SearchSlots(ctx context.Context, c SearchCriteria) ([]*SlotResult, error)
	ListSlotsByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]*Slot, int, error)
}
