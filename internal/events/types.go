// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	// Trade lifecycle
	TradeCreated EventType = "TRADE_CREATED"
	TradeUpdated EventType = "TRADE_UPDATED"
	TradeClosed  EventType = "TRADE_CLOSED"
	TradeDeleted EventType = "TRADE_DELETED"

	// Portfolio lifecycle
	PortfolioCreated EventType = "PORTFOLIO_CREATED"
	PortfolioUpdated EventType = "PORTFOLIO_UPDATED"
	PortfolioDeleted EventType = "PORTFOLIO_DELETED"

	// Accounts
	UserDeleted EventType = "USER_DELETED"
)

// AllTypes lists every event type, in declaration order.
var AllTypes = []EventType{
	TradeCreated, TradeUpdated, TradeClosed, TradeDeleted,
	PortfolioCreated, PortfolioUpdated, PortfolioDeleted,
	UserDeleted,
}

// Event is a published event. Data is the typed payload flattened to a map,
// so it encodes the same way over JSON and msgpack.
type Event struct {
	ID        string                 `json:"id" msgpack:"id"`
	Type      EventType              `json:"type" msgpack:"type"`
	Timestamp time.Time              `json:"timestamp" msgpack:"timestamp"`
	Module    string                 `json:"module" msgpack:"module"`
	Data      map[string]interface{} `json:"data" msgpack:"data"`
}
