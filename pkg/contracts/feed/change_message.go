package feed

// ChangeMessage é uma linha do feed de mercado (op "mcm").
// clk é o token de mudança da fonte e pt o instante de publicação em epoch millis.
type ChangeMessage struct {
	Operation     string         `json:"op"`
	ChangeID      string         `json:"clk"`
	PublishTime   int64          `json:"pt"`
	MarketChanges []MarketChange `json:"mc"`
}

// MarketChange carrega, para um mercado, um snapshot completo e/ou deltas de preço.
type MarketChange struct {
	MarketID     string            `json:"id"`
	Definition   *MarketDefinition `json:"marketDefinition,omitempty"`
	RunnerDeltas []RunnerDelta     `json:"rc,omitempty"`
}

// RunnerDelta é uma observação de último preço negociado.
type RunnerDelta struct {
	RunnerID        int64   `json:"id"`
	LastTradedPrice float64 `json:"ltp"`
}

// Status de mercado
const (
	StatusOpen      = "OPEN"
	StatusSuspended = "SUSPENDED"
	StatusClosed    = "CLOSED"
)

// Status de runner
const (
	RunnerActive  = "ACTIVE"
	RunnerRemoved = "REMOVED"
	RunnerWinner  = "WINNER"
	RunnerLoser   = "LOSER"
)

// MarketDefinition é o snapshot desnormalizado do mercado enviado pelo feed.
type MarketDefinition struct {
	Status                string   `json:"status"`
	Name                  string   `json:"name,omitempty"`
	EventID               string   `json:"eventId"`
	EventName             string   `json:"eventName,omitempty"`
	EventTypeID           string   `json:"eventTypeId,omitempty"`
	MarketType            string   `json:"marketType,omitempty"`
	BettingType           string   `json:"bettingType,omitempty"`
	NumberOfWinners       int      `json:"numberOfWinners,omitempty"`
	NumberOfActiveRunners int      `json:"numberOfActiveRunners,omitempty"`
	BetDelay              int      `json:"betDelay,omitempty"`
	Version               int64    `json:"version,omitempty"`
	InPlay                bool     `json:"inPlay"`
	TurnInPlayEnabled     bool     `json:"turnInPlayEnabled,omitempty"`
	BspMarket             bool     `json:"bspMarket,omitempty"`
	Complete              bool     `json:"complete,omitempty"`
	MarketTime            string   `json:"marketTime,omitempty"`
	SuspendTime           string   `json:"suspendTime,omitempty"`
	OpenDate              string   `json:"openDate,omitempty"`
	SettledTime           string   `json:"settledTime,omitempty"`
	Venue                 string   `json:"venue,omitempty"`
	CountryCode           string   `json:"countryCode,omitempty"`
	Timezone              string   `json:"timezone,omitempty"`
	Runners               []Runner `json:"runners"`
}

// Runner é um participante do mercado dentro da definição.
type Runner struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name,omitempty"`
	Status           string  `json:"status"`
	SortPriority     int     `json:"sortPriority"`
	AdjustmentFactor float64 `json:"adjustmentFactor,omitempty"`
}
