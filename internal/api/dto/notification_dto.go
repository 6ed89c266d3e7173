package dto

// NotificationRequest payload for registering a notification.
type NotificationRequest struct {
	Message    string   `json:"message" validate:"required,max=500"`
	Causes     []string `json:"causes" validate:"max=20,dive,max=200"`
	Severity   string   `json:"severity" validate:"omitempty,oneof=info success error"`
	LifetimeMs int      `json:"lifetime_ms" validate:"gte=0,lte=600000"`
}

// SwipeRequest carries the horizontal distance of a swipe gesture.
type SwipeRequest struct {
	Distance float64 `json:"distance"`
}

// ClosedResponse reports whether a close request changed anything.
type ClosedResponse struct {
	ID     string `json:"id"`
	Closed bool   `json:"closed"`
}
