package events

import "encoding/json"

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// TradeEventData is the payload of TRADE_CREATED, TRADE_UPDATED and TRADE_DELETED.
// Kind selects which of the three it is.
type TradeEventData struct {
	Kind        EventType `json:"-"`
	TradeID     int64     `json:"trade_id"`
	PortfolioID int64     `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	Direction   string    `json:"trade_type"`
	Status      string    `json:"status"`
	ProfitLoss  *float64  `json:"profit_loss,omitempty"`
}

// EventType returns the event type for TradeEventData
func (d *TradeEventData) EventType() EventType {
	if d.Kind == "" {
		return TradeUpdated
	}
	return d.Kind
}

// TradeClosedData contains data for TradeClosed events
type TradeClosedData struct {
	TradeID              int64   `json:"trade_id"`
	PortfolioID          int64   `json:"portfolio_id"`
	Symbol               string  `json:"symbol"`
	Direction            string  `json:"trade_type"`
	ExitPrice            float64 `json:"exit_price"`
	ProfitLoss           float64 `json:"profit_loss"`
	ProfitLossPercentage float64 `json:"profit_loss_percentage"`
}

// EventType returns the event type for TradeClosedData
func (d *TradeClosedData) EventType() EventType {
	return TradeClosed
}

// PortfolioEventData is the payload of the portfolio lifecycle events.
type PortfolioEventData struct {
	Kind          EventType `json:"-"`
	PortfolioID   int64     `json:"portfolio_id"`
	UserID        int64     `json:"user_id"`
	Name          string    `json:"name,omitempty"`
	TradesRemoved int64     `json:"trades_removed,omitempty"`
}

// EventType returns the event type for PortfolioEventData
func (d *PortfolioEventData) EventType() EventType {
	if d.Kind == "" {
		return PortfolioUpdated
	}
	return d.Kind
}

// UserDeletedData contains data for UserDeleted events
type UserDeletedData struct {
	UserID            int64 `json:"user_id"`
	PortfoliosRemoved int64 `json:"portfolios_removed"`
	TradesRemoved     int64 `json:"trades_removed"`
}

// EventType returns the event type for UserDeletedData
func (d *UserDeletedData) EventType() EventType {
	return UserDeleted
}

// convertEventDataToMap flattens typed EventData into the map carried by Event
func convertEventDataToMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}

	return result
}

// DecodeData converts an event's map payload back into typed data.
func DecodeData(e Event, v EventData) error {
	jsonBytes, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}
