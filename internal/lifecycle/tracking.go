package lifecycle

import (
	"strings"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"
	"garment-tracker/internal/policy"
)

// CanTrack reports whether order currently accepts tracking entries.
// An order that was approved and later left the approved state is closed for good.
func CanTrack(order *model.Order) error {
	if order.Status == model.OrderApproved {
		return nil
	}
	if order.ApprovedAt != nil {
		return apperror.ErrOrderTerminal
	}
	return apperror.ErrOrderNotApproved
}

// AuthorizeTracking checks that actor may record production progress.
func AuthorizeTracking(actor *model.Account) error {
	return policy.Check(actor, policy.OrderTrack).Err()
}

// ValidateEntry checks the caller-supplied fields of a tracking entry.
func ValidateEntry(entry model.TrackingEntry) error {
	if !model.IsTrackingStatus(entry.Status) {
		return apperror.Invalid("unknown tracking status %q", entry.Status)
	}
	if strings.TrimSpace(entry.Location) == "" {
		return apperror.Invalid("location is required")
	}
	if entry.Date.IsZero() {
		return apperror.Invalid("date is required")
	}
	return nil
}

// AppendTracking appends entry to the order's log and returns the stored copy.
// Seq is assigned from the current log length; entries are never edited or removed.
func AppendTracking(order *model.Order, entry model.TrackingEntry) (model.TrackingEntry, error) {
	if err := CanTrack(order); err != nil {
		return model.TrackingEntry{}, err
	}
	if err := ValidateEntry(entry); err != nil {
		return model.TrackingEntry{}, err
	}
	entry.ID = 0
	entry.OrderID = order.ID
	entry.Seq = len(order.Tracking) + 1
	order.Tracking = append(order.Tracking, entry)
	return entry, nil
}
