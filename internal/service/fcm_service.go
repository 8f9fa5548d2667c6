package service

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Pusher delivers a push message to a device token. FCMService implements it.
type Pusher interface {
	SendToUser(ctx context.Context, fcmToken, notifType, title, body string, data map[string]interface{}) error
}

// FCMService sends push notifications via Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
	log    *zap.Logger
}

// NewFCMService creates an FCM service. Returns nil if Firebase is not configured or fails to
// initialise.
func NewFCMService(serviceAccountPath string, logger *zap.Logger) *FCMService {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("fcm")
	if serviceAccountPath == "" {
		logger.Info("push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
		return nil
	}
	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		logger.Error("init firebase app", zap.Error(err))
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Error("init messaging client", zap.Error(err))
		return nil
	}
	logger.Info("push notifications enabled")
	return &FCMService{client: client, log: logger}
}

// Send sends a push notification to the given FCM token.
func (s *FCMService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if s == nil || token == "" {
		return nil
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Token: token,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		s.log.Warn("send", zap.Error(err))
		return err
	}
	return nil
}

// SendToUser converts data to the string map FCM requires and sends it.
func (s *FCMService) SendToUser(ctx context.Context, fcmToken, notifType, title, body string, data map[string]interface{}) error {
	if s == nil || fcmToken == "" {
		return nil
	}
	return s.Send(ctx, fcmToken, title, body, stringData(notifType, data))
}

func stringData(notifType string, data map[string]interface{}) map[string]string {
	out := map[string]string{"type": notifType}
	for k, v := range data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case *string:
			if val != nil {
				out[k] = *val
			}
		case uint:
			out[k] = fmt.Sprintf("%d", val)
		case *uint:
			if val != nil {
				out[k] = fmt.Sprintf("%d", *val)
			}
		case int:
			out[k] = fmt.Sprintf("%d", val)
		case fmt.Stringer:
			out[k] = val.String()
		default:
			b, _ := json.Marshal(v)
			out[k] = string(b)
		}
	}
	return out
}
