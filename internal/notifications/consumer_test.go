package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trovamart/returns-backend/pkg/enums"
	"github.com/trovamart/returns-backend/pkg/outbox/payloads"
)

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func TestDraftForStatusChange(t *testing.T) {
	consumer := &Consumer{}
	payload := payloads.ReturnStatusChangedEvent{
		ReturnID:   uuid.New(),
		RequestID:  "RET-20260815-AB12CD",
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		FromStatus: enums.ReturnStatusAdminReview,
		ToStatus:   enums.ReturnStatusApproved,
	}

	d, err := consumer.draftFor(enums.EventReturnStatusChanged, mustMarshal(t, payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil {
		t.Fatal("expected a notification draft")
	}
	if d.UserID != payload.CustomerID {
		t.Fatalf("expected customer %s, got %s", payload.CustomerID, d.UserID)
	}
	if d.Type != enums.NotificationTypeReturnUpdate {
		t.Fatalf("unexpected type %s", d.Type)
	}
	if d.Title != "Return approved" {
		t.Fatalf("unexpected title %q", d.Title)
	}
}

func TestDraftForInternalHopIsSilent(t *testing.T) {
	consumer := &Consumer{}
	payload := payloads.ReturnStatusChangedEvent{
		ReturnID:   uuid.New(),
		CustomerID: uuid.New(),
		FromStatus: enums.ReturnStatusApproved,
		ToStatus:   enums.ReturnStatusWarehouseAssigned,
	}

	d, err := consumer.draftFor(enums.EventReturnStatusChanged, mustMarshal(t, payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Fatalf("expected no draft for internal transition, got %q", d.Title)
	}
}

func TestDraftForPickupScheduledUsesPickupAlert(t *testing.T) {
	consumer := &Consumer{}
	payload := payloads.ReturnStatusChangedEvent{
		ReturnID:   uuid.New(),
		RequestID:  "RET-20260815-AB12CD",
		OrderID:    uuid.New(),
		CustomerID: uuid.New(),
		FromStatus: enums.ReturnStatusWarehouseAssigned,
		ToStatus:   enums.ReturnStatusPickupScheduled,
	}

	d, err := consumer.draftFor(enums.EventReturnStatusChanged, mustMarshal(t, payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil {
		t.Fatal("expected a notification draft")
	}
	if d.Type != enums.NotificationTypePickupAlert {
		t.Fatalf("expected pickup alert, got %s", d.Type)
	}
}

func TestDraftForRefundSettled(t *testing.T) {
	consumer := &Consumer{}
	payload := payloads.RefundSettledEvent{
		ReturnID:      uuid.New(),
		OrderID:       uuid.New(),
		CustomerID:    uuid.New(),
		CoinsCredited: 1600,
		SettledAt:     time.Now().UTC(),
	}

	d, err := consumer.draftFor(enums.EventRefundSettled, mustMarshal(t, payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil {
		t.Fatal("expected a notification draft")
	}
	if d.Type != enums.NotificationTypeRefundCredited {
		t.Fatalf("unexpected type %s", d.Type)
	}
	if d.ReturnID == nil || *d.ReturnID != payload.ReturnID {
		t.Fatal("expected return id on draft")
	}
}

func TestDraftForRefundSettledMissingCustomer(t *testing.T) {
	consumer := &Consumer{}
	payload := payloads.RefundSettledEvent{ReturnID: uuid.New(), CoinsCredited: 100}

	if _, err := consumer.draftFor(enums.EventRefundSettled, mustMarshal(t, payload)); err == nil {
		t.Fatal("expected error for missing customer id")
	}
}

func TestDraftForOTPLockout(t *testing.T) {
	consumer := &Consumer{}
	payload := payloads.OTPLockedOutEvent{
		OrderID:        uuid.New(),
		CustomerID:     uuid.New(),
		FailedAttempts: 3,
		LockedUntil:    time.Now().Add(30 * time.Minute).UTC(),
	}

	d, err := consumer.draftFor(enums.EventOTPLockedOut, mustMarshal(t, payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil {
		t.Fatal("expected a notification draft")
	}
	if d.Type != enums.NotificationTypeSecurityAlert {
		t.Fatalf("expected security alert, got %s", d.Type)
	}
	if d.UserID != payload.CustomerID {
		t.Fatalf("expected customer %s, got %s", payload.CustomerID, d.UserID)
	}
}

func TestHandlesFiltersEventTypes(t *testing.T) {
	consumer := &Consumer{}
	accepted := []enums.OutboxEventType{
		enums.EventReturnStatusChanged,
		enums.EventRefundSettled,
		enums.EventOTPLockedOut,
	}
	for _, eventType := range accepted {
		if !consumer.handles(eventType) {
			t.Fatalf("expected %s to be handled", eventType)
		}
	}
	if consumer.handles(enums.EventNotificationRequested) {
		t.Fatal("fan-out events must not loop back into the consumer")
	}
}
