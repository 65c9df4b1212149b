package services

import (
	"errors"
	"fmt"

	"visitor-backend/models"
)

// Workflow errors use snake_case codes so controllers and clients can match
// on them directly.
var (
	ErrVisitNotFound   = errors.New("visit_not_found")
	ErrVisitorNotFound = errors.New("visitor_not_found")
	ErrSiteNotFound    = errors.New("site_not_found")
	ErrUserNotFound    = errors.New("user_not_found")

	ErrAlreadyCheckedIn = errors.New("already_checked_in")
	ErrNotCheckedIn     = errors.New("not_checked_in")
	ErrAlreadyCancelled = errors.New("already_cancelled")
	ErrNotScheduled     = errors.New("not_scheduled")

	ErrEvacuationActive  = errors.New("evacuation_active")
	ErrEvacuationClosed  = errors.New("evacuation_already_closed")
	ErrEvacuationOngoing = errors.New("evacuation_already_active")

	ErrInductionRequired     = errors.New("induction_required")
	ErrDocumentsOutstanding  = errors.New("documents_outstanding")
	ErrAlreadyAcknowledged   = errors.New("already_acknowledged")
	ErrNotificationNotFound  = errors.New("notification_not_found")
	ErrReasonRequired        = errors.New("reason_required")
	ErrInvalidPlannedWindow  = errors.New("planned_departure_before_arrival")
	ErrPreApprovalNotPending = errors.New("pre_approval_not_pending")
	ErrPreApprovalNotFound   = errors.New("pre_approval_not_found")
)

// IsInvalidTransition reports whether err is one of the visit state machine's
// illegal-transition errors.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrAlreadyCheckedIn) ||
		errors.Is(err, ErrNotCheckedIn) ||
		errors.Is(err, ErrAlreadyCancelled) ||
		errors.Is(err, ErrNotScheduled)
}

// DeniedVisitorError blocks a check-in and carries the deny-list entry so the
// caller can surface the reason.
type DeniedVisitorError struct {
	Entry *models.DenyListEntry
}

func (e *DeniedVisitorError) Error() string {
	return fmt.Sprintf("visitor_denied: %s", e.Entry.Reason)
}

// AsDeniedVisitor unwraps err to a DeniedVisitorError if it is one.
func AsDeniedVisitor(err error) (*DeniedVisitorError, bool) {
	var denied *DeniedVisitorError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}
