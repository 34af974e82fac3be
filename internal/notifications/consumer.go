package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovamart/returns-backend/pkg/db/models"
	"github.com/trovamart/returns-backend/pkg/enums"
	"github.com/trovamart/returns-backend/pkg/logger"
	"github.com/trovamart/returns-backend/pkg/outbox"
	"github.com/trovamart/returns-backend/pkg/outbox/idempotency"
	"github.com/trovamart/returns-backend/pkg/outbox/payloads"
)

const returnNotificationConsumer = "return-notifications"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Consumer watches return lifecycle events and turns them into in-app
// notifications. Each stored notification also produces a
// notification_requested event so external channels can deliver it.
type Consumer struct {
	repo         Repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	tx           txRunner
	outbox       outboxEmitter
	logg         *logger.Logger
}

// NewConsumer builds a return notification consumer.
func NewConsumer(repo Repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, tx txRunner, emitter outboxEmitter, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("returns subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		tx:           tx,
		outbox:       emitter,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !c.handles(eventType) {
		c.logg.Info(logCtx, "skipping event without notification mapping")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, returnNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	draft, err := c.draftFor(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, returnNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if draft == nil {
		c.logg.Info(logCtx, "event produced no notification")
		return processResult{ack: true}
	}

	if err := c.deliver(ctx, *draft); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, returnNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{"user_id": draft.UserID.String()}), "notification stored")
	return processResult{ack: true}
}

func (c *Consumer) handles(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventReturnStatusChanged, enums.EventRefundSettled, enums.EventOTPLockedOut:
		return true
	default:
		return false
	}
}

// draft is a notification waiting to be stored and fanned out.
type draft struct {
	UserID   uuid.UUID
	ReturnID *uuid.UUID
	OrderID  *uuid.UUID
	Type     enums.NotificationType
	Title    string
	Message  string
	Link     *string
}

func (c *Consumer) draftFor(eventType enums.OutboxEventType, data json.RawMessage) (*draft, error) {
	switch eventType {
	case enums.EventReturnStatusChanged:
		var payload payloads.ReturnStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return statusChangeDraft(payload), nil
	case enums.EventRefundSettled:
		var payload payloads.RefundSettledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.CustomerID == uuid.Nil {
			return nil, fmt.Errorf("customer id missing")
		}
		link := fmt.Sprintf("/returns/%s", payload.ReturnID)
		return &draft{
			UserID:   payload.CustomerID,
			ReturnID: &payload.ReturnID,
			OrderID:  &payload.OrderID,
			Type:     enums.NotificationTypeRefundCredited,
			Title:    "Refund credited",
			Message:  fmt.Sprintf("%d coins were credited to your wallet for your return.", payload.CoinsCredited),
			Link:     &link,
		}, nil
	case enums.EventOTPLockedOut:
		var payload payloads.OTPLockedOutEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.CustomerID == uuid.Nil {
			return nil, fmt.Errorf("customer id missing")
		}
		link := fmt.Sprintf("/orders/%s", payload.OrderID)
		return &draft{
			UserID:  payload.CustomerID,
			OrderID: &payload.OrderID,
			Type:    enums.NotificationTypeSecurityAlert,
			Title:   "Pickup verification locked",
			Message: fmt.Sprintf("Verification for your order was locked until %s after %d failed attempts. Contact support if this was not you.", payload.LockedUntil.Format(time.RFC1123), payload.FailedAttempts),
			Link:    &link,
		}, nil
	default:
		return nil, nil
	}
}

func statusChangeDraft(payload payloads.ReturnStatusChangedEvent) *draft {
	if payload.CustomerID == uuid.Nil {
		return nil
	}

	var title, message string
	kind := enums.NotificationTypeReturnUpdate
	switch payload.ToStatus {
	case enums.ReturnStatusApproved:
		title = "Return approved"
		message = fmt.Sprintf("Return %s was approved. A pickup will be scheduled shortly.", payload.RequestID)
	case enums.ReturnStatusRejected:
		title = "Return rejected"
		message = fmt.Sprintf("Return %s was not approved. Check the request for details.", payload.RequestID)
	case enums.ReturnStatusPickupScheduled:
		kind = enums.NotificationTypePickupAlert
		title = "Pickup scheduled"
		message = fmt.Sprintf("A pickup has been scheduled for return %s. Keep the verification code from your delivery handy.", payload.RequestID)
	case enums.ReturnStatusPickupFailed:
		kind = enums.NotificationTypePickupAlert
		title = "Pickup attempt failed"
		message = fmt.Sprintf("We could not complete the pickup for return %s. It will be rescheduled.", payload.RequestID)
	case enums.ReturnStatusPickedUp:
		title = "Items picked up"
		message = fmt.Sprintf("The items for return %s were collected and are on their way to the warehouse.", payload.RequestID)
	case enums.ReturnStatusRefundApproved:
		title = "Refund approved"
		message = fmt.Sprintf("The refund for return %s was approved and will be credited to your wallet.", payload.RequestID)
	case enums.ReturnStatusCompleted:
		title = "Return completed"
		message = fmt.Sprintf("Return %s is complete. Thank you for shopping with us.", payload.RequestID)
	default:
		// Internal hops like warehouse assignment stay invisible to the customer.
		return nil
	}

	link := fmt.Sprintf("/returns/%s", payload.ReturnID)
	return &draft{
		UserID:   payload.CustomerID,
		ReturnID: &payload.ReturnID,
		OrderID:  &payload.OrderID,
		Type:     kind,
		Title:    title,
		Message:  message,
		Link:     &link,
	}
}

// deliver stores the notification and enqueues the fan-out event in one
// transaction so a crash cannot strand a row without its event.
func (c *Consumer) deliver(ctx context.Context, d draft) error {
	notification := &models.Notification{
		ID:      uuid.New(),
		UserID:  d.UserID,
		Type:    d.Type,
		Title:   d.Title,
		Message: d.Message,
		Link:    d.Link,
	}

	return c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := c.repo.WithTx(tx).Create(ctx, notification); err != nil {
			return err
		}
		return c.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   notification.ID,
			Data: payloads.NotificationRequestedEvent{
				NotificationID: notification.ID,
				UserID:         d.UserID,
				ReturnID:       d.ReturnID,
				OrderID:        d.OrderID,
				Type:           d.Type,
				Title:          d.Title,
				Body:           d.Message,
			},
			Version:    1,
			OccurredAt: time.Now().UTC(),
		})
	})
}
