package event

import "time"

// Metadata identifies who caused an event and the request it came from.
// UserID is empty for anonymous changes.
type Metadata struct {
	UserID        string    `json:"user_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitzero"`
}

// NewMetadata stamps the metadata with the current UTC time.
func NewMetadata(userID, correlationID string) Metadata {
	return Metadata{UserID: userID, CorrelationID: correlationID, Timestamp: time.Now().UTC()}
}
