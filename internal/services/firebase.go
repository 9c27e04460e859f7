package services

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// messageSender is the part of *messaging.Client the notifier uses.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushNotifier sends trip events to the FCM topic user_<id>.
type PushNotifier struct {
	sender messageSender
	log    *zap.Logger
}

// InitFirebase initializes the Admin SDK. An empty path disables push notifications.
func InitFirebase(ctx context.Context, serviceAccountPath string, log *zap.Logger) (*PushNotifier, error) {
	if serviceAccountPath == "" {
		log.Warn("FIREBASE_SERVICE_ACCOUNT_PATH not set, push notifications disabled")
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %v", err)
	}

	log.Info("firebase cloud messaging initialized")
	return &PushNotifier{sender: client, log: log}, nil
}

func UserTopic(userID string) string {
	return "user_" + userID
}

func (p *PushNotifier) PublishTripEvent(ctx context.Context, userID string, ev TripEvent) {
	if p == nil || p.sender == nil {
		return
	}

	title := "Trip booked"
	if ev.Type == EventTripBookingFailed {
		title = "Trip booking failed"
	}
	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  ev.Message,
		},
		Data: toStringMap(map[string]interface{}{
			"type":               ev.Type,
			"tripId":             ev.TripID,
			"sagaId":             ev.SagaID,
			"status":             string(ev.Status),
			"failedItems":        ev.FailedItems,
			"compensationFailed": ev.CompensationFailed,
			"notificationId":     "trip_booking_" + ev.SagaID,
		}),
		Topic:   UserTopic(userID),
		Android: androidConfig(),
		APNS:    apnsConfig(),
	}

	response, err := p.sender.Send(ctx, message)
	if err != nil {
		p.log.Warn("push notification failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	p.log.Debug("push notification sent", zap.String("user_id", userID), zap.String("response", response))
}

func androidConfig() *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:        "default",
			ChannelID:    "trip_bookings",
			Priority:     messaging.PriorityHigh,
			DefaultSound: true,
		},
	}
}

func apnsConfig() *messaging.APNSConfig {
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound:          "default",
				MutableContent: true,
			},
		},
	}
}

// toStringMap flattens data values into the string map FCM requires.
func toStringMap(data map[string]interface{}) map[string]string {
	out := make(map[string]string, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case nil:
		case string:
			out[key] = v
		case int, int64, float64, bool:
			out[key] = fmt.Sprintf("%v", v)
		case []string:
			if len(v) == 0 {
				continue
			}
			encoded, _ := json.Marshal(v)
			out[key] = string(encoded)
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out[key] = string(encoded)
		}
	}
	return out
}
