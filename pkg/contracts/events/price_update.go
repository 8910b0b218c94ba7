package events

import "time"

// Evento publicado no canal price_updates_broadcast após persistir preços
type PriceUpdate struct {
	MarketID        string    `json:"marketId"`
	RunnerID        int64     `json:"runnerId"`
	RunnerName      string    `json:"runnerName"`
	LastTradedPrice float64   `json:"lastTradedPrice"`
	EventID         string    `json:"eventId"`
	EventName       string    `json:"eventName"`
	Timestamp       time.Time `json:"timestamp"`
	ChangeID        string    `json:"changeId"`
}
