package api

import "github.com/openkcm/fitness-client/pkg/session"

// StatusSuccess is the envelope status of a successful member-service call.
const StatusSuccess = "SUCCESS"

// Envelope wraps member-service responses. Data is decoded per endpoint.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type SignupRequest struct {
	ID       string       `json:"id"`
	Password string       `json:"password"`
	Role     session.Role `json:"role"`
}

type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type MarkAsReadRequest struct {
	NotificationID int64 `json:"notificationId"`
}

// Notification as returned by the notification service, in server order.
type Notification struct {
	NotificationID    int64  `json:"notificationId"`
	UserID            int64  `json:"userId,omitempty"`
	Content           string `json:"content"`
	SendByUserID      int64  `json:"sendByUserId,omitempty"`
	CheckNotification bool   `json:"checkNotification"`
}
