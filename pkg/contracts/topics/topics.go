package topics

const (
	// Feed de mercado (linhas cruas do stream)
	MarketChanges = "market_changes"

	// DLQs
	MarketChangesDLQ = "market_changes_dlq"
)

// Canais Redis Pub/Sub
const (
	ChannelPriceBroadcast = "price_updates_broadcast"
)
