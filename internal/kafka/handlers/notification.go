package handlers

import (
	"encoding/json"

	"vn.io.arda/console-sync/internal/domain"
	"vn.io.arda/console-sync/internal/messages"
)

func init() {
	Register(NotificationTopic, "NOTIFICATION_CREATED", handleNotificationCreated)
	Register(NotificationTopic, "NOTIFICATION_READ", handleNotificationRead)
	Register(NotificationTopic, "NOTIFICATION_DELETED", handleNotificationDeleted)
}

type notificationEnv struct {
	EventType string `json:"eventType"`
	EventID   string `json:"eventId"`
	Payload   struct {
		NotificationID string `json:"notificationId"`
		RecipientID    string `json:"recipientId"`
	} `json:"payload"`
}

func parseNotificationEnv(data []byte) (*notificationEnv, bool) {
	var env notificationEnv
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	return &env, true
}

// Every notification event can move the unread count.
func notificationInvalidation(env *notificationEnv, reason string) *domain.Invalidation {
	return &domain.Invalidation{
		Kinds:            []domain.Kind{domain.KindNotification},
		RefreshAggregate: true,
		SourceEventID:    env.EventID,
		Reason:           reason,
	}
}

func handleNotificationCreated(data []byte) *domain.Invalidation {
	env, ok := parseNotificationEnv(data)
	if !ok {
		return nil
	}
	return notificationInvalidation(env, messages.NotificationCreated(env.Payload.NotificationID))
}

func handleNotificationRead(data []byte) *domain.Invalidation {
	env, ok := parseNotificationEnv(data)
	if !ok {
		return nil
	}
	return notificationInvalidation(env, messages.NotificationRead(env.Payload.NotificationID))
}

func handleNotificationDeleted(data []byte) *domain.Invalidation {
	env, ok := parseNotificationEnv(data)
	if !ok {
		return nil
	}
	return notificationInvalidation(env, messages.NotificationDeleted(env.Payload.NotificationID))
}
