package live

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Um dos dois filtros é obrigatório em subscribe/unsubscribe
type ClientMsg struct {
	Type     string `json:"type"`
	EventID  string `json:"eventId,omitempty"`
	MarketID string `json:"marketId,omitempty"`
}

// key identifica a assinatura; mercado tem precedência sobre evento
func (m ClientMsg) key() string {
	switch {
	case m.MarketID != "":
		return "market:" + m.MarketID
	case m.EventID != "":
		return "event:" + m.EventID
	}
	return ""
}
