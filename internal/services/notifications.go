package services

import (
	"context"
	"fmt"

	"github.com/obotesoftech/prisonreturns/types"
)

// WatermarkRepository stores how many returns a scope was alerted about.
type WatermarkRepository interface {
	Advance(ctx context.Context, scope string, count int) (previous int, found bool, err error)
}

// ReturnLister lists the returns a caller can see.
type ReturnLister interface {
	List(ctx context.Context, caller types.Session) ([]types.ReturnRecord, error)
}

// Notification is one new-return alert.
type Notification struct {
	Message string             `json:"message"`
	Station string             `json:"station"`
	Return  types.ReturnRecord `json:"return"`
}

// NotificationService reports returns submitted since a scope last checked.
type NotificationService struct {
	returns    ReturnLister
	watermarks WatermarkRepository
}

func NewNotificationService(returns ReturnLister, watermarks WatermarkRepository) *NotificationService {
	return &NotificationService{returns: returns, watermarks: watermarks}
}

// CheckForNewReturns returns the caller's visible returns past the scope's
// watermark and moves the watermark to the current count. The first check
// for a scope only records the count.
func (s *NotificationService) CheckForNewReturns(ctx context.Context, caller types.Session, scope string) ([]Notification, error) {
	records, err := s.returns.List(ctx, caller)
	if err != nil {
		return nil, err
	}

	previous, found, err := s.watermarks.Advance(ctx, StateKey(caller, scope), len(records))
	if err != nil {
		return nil, err
	}

	out := make([]Notification, 0)
	if !found || previous >= len(records) || previous < 0 {
		return out, nil
	}
	for _, r := range records[previous:] {
		out = append(out, NotificationFor(r))
	}
	return out, nil
}

// NotificationFor formats the alert text for a return.
func NotificationFor(r types.ReturnRecord) Notification {
	return Notification{
		Message: fmt.Sprintf("Return Type: %s (%s)", r.ReturnTypeLabel(), r.Frequency),
		Station: r.Station,
		Return:  r,
	}
}
