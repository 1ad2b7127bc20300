package models

import "time"

// Event type constants for the portfolio events topic
const (
	EventPortfolioCreated = "PORTFOLIO_CREATED"
	EventPortfolioDeleted = "PORTFOLIO_DELETED"
	EventPositionAdded    = "POSITION_ADDED"
	EventPositionUpdated  = "POSITION_UPDATED"
	EventPositionDeleted  = "POSITION_DELETED"
)

// PortfolioEvent is published to Kafka for every admitted mutating action.
type PortfolioEvent struct {
	EventType string    `json:"event_type"`
	OwnerID   int       `json:"owner_id"`
	Portfolio string    `json:"portfolio"`
	Ticker    string    `json:"ticker,omitempty"`
	Position  *Position `json:"position,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
