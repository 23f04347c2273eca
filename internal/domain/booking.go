package domain

import "time"

type BookingStatus string

const (
	BookingStatusUpcoming  BookingStatus = "upcoming"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further status transitions are allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

type Booking struct {
	ID                   int64         `json:"id"`
	ProviderID           int64         `json:"provider_id"`
	ProviderName         string        `json:"provider_name"`
	ServiceType          string        `json:"service_type"`
	Status               BookingStatus `json:"status"`
	Position             int           `json:"position,omitempty"`
	EstimatedWaitMinutes int           `json:"estimated_wait_minutes,omitempty"`
	Token                string        `json:"token,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
}

// QueueSnapshot is the authoritative queue state for one token as reported
// by the remote backend. It is recomputed every poll tick and never persisted.
type QueueSnapshot struct {
	TokenID       string `json:"tokenId"`
	Position      int    `json:"position"`
	EstimatedWait string `json:"estimatedWait"`
	Status        string `json:"status"`
	ServiceName   string `json:"serviceName"`
}

func (s QueueSnapshot) Terminal() bool {
	return BookingStatus(s.Status).Terminal()
}
