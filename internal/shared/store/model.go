package store

import "time"

// Coleções do banco de documentos
const (
	CollectionDefinitions = "marketDefs"
	CollectionStatuses    = "marketStatuses"
	CollectionPrices      = "priceUpdates"
)

// MarketDefinitionRecord é o snapshot completo de um mercado num instante.
// ChangeID = clk + "_" + marketId e é único na coleção.
type MarketDefinitionRecord struct {
	MarketID    string    `bson:"marketId" json:"marketId"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	ChangeID    string    `bson:"changeId" json:"changeId"`
	PublishTime int64     `bson:"publishTime" json:"publishTime"`

	Status                string         `bson:"status" json:"status"`
	Name                  string         `bson:"name,omitempty" json:"name,omitempty"`
	EventID               string         `bson:"eventId" json:"eventId"`
	EventName             string         `bson:"eventName" json:"eventName"`
	EventTypeID           string         `bson:"eventTypeId,omitempty" json:"eventTypeId,omitempty"`
	MarketType            string         `bson:"marketType,omitempty" json:"marketType,omitempty"`
	BettingType           string         `bson:"bettingType,omitempty" json:"bettingType,omitempty"`
	NumberOfWinners       int            `bson:"numberOfWinners" json:"numberOfWinners"`
	NumberOfActiveRunners int            `bson:"numberOfActiveRunners" json:"numberOfActiveRunners"`
	BetDelay              int            `bson:"betDelay" json:"betDelay"`
	Version               int64          `bson:"version" json:"version"`
	InPlay                bool           `bson:"inPlay" json:"inPlay"`
	TurnInPlayEnabled     bool           `bson:"turnInPlayEnabled" json:"turnInPlayEnabled"`
	BspMarket             bool           `bson:"bspMarket" json:"bspMarket"`
	Complete              bool           `bson:"complete" json:"complete"`
	MarketTime            string         `bson:"marketTime,omitempty" json:"marketTime,omitempty"`
	SuspendTime           string         `bson:"suspendTime,omitempty" json:"suspendTime,omitempty"`
	OpenDate              string         `bson:"openDate,omitempty" json:"openDate,omitempty"`
	SettledTime           string         `bson:"settledTime,omitempty" json:"settledTime,omitempty"`
	Venue                 string         `bson:"venue,omitempty" json:"venue,omitempty"`
	CountryCode           string         `bson:"countryCode,omitempty" json:"countryCode,omitempty"`
	Timezone              string         `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Runners               []RunnerRecord `bson:"runners" json:"runners"`
}

// RunnerRecord é um item do roster de runners da definição.
type RunnerRecord struct {
	ID               int64   `bson:"id" json:"id"`
	Name             string  `bson:"name" json:"name"`
	Status           string  `bson:"status" json:"status"`
	SortPriority     int     `bson:"sortPriority" json:"sortPriority"`
	AdjustmentFactor float64 `bson:"adjustmentFactor" json:"adjustmentFactor"`
}

// RunnerName procura o nome do runner no roster
func (d *MarketDefinitionRecord) RunnerName(id int64) (string, bool) {
	for _, r := range d.Runners {
		if r.ID == id && r.Name != "" {
			return r.Name, true
		}
	}
	return "", false
}

// MarketStatusRecord é a trilha enxuta de status, derivada da definição no mesmo instante.
type MarketStatusRecord struct {
	MarketID          string    `bson:"marketId" json:"marketId"`
	Status            string    `bson:"status" json:"status"`
	Timestamp         time.Time `bson:"timestamp" json:"timestamp"`
	ChangeID          string    `bson:"changeId" json:"changeId"`
	EventID           string    `bson:"eventId" json:"eventId"`
	EventName         string    `bson:"eventName" json:"eventName"`
	ActiveRunnerCount int       `bson:"activeRunnerCount" json:"activeRunnerCount"`
}

// PriceUpdateRecord é uma observação de preço de um runner.
// (ChangeID, RunnerID) é único.
type PriceUpdateRecord struct {
	MarketID        string    `bson:"marketId" json:"marketId"`
	RunnerID        int64     `bson:"runnerId" json:"runnerId"`
	RunnerName      string    `bson:"runnerName" json:"runnerName"`
	LastTradedPrice float64   `bson:"lastTradedPrice" json:"lastTradedPrice"`
	Timestamp       time.Time `bson:"timestamp" json:"timestamp"`
	ChangeID        string    `bson:"changeId" json:"changeId"`
	PublishTime     int64     `bson:"publishTime" json:"publishTime"`
	EventID         string    `bson:"eventId" json:"eventId"`
	EventName       string    `bson:"eventName" json:"eventName"`
}

// EventSummary resume o que o ledger sabe sobre um evento.
// StatusCounts considera apenas o status mais recente de cada mercado.
type EventSummary struct {
	EventID      string         `json:"eventId"`
	EventName    string         `json:"eventName"`
	Markets      int            `json:"markets"`
	StatusCounts map[string]int `json:"statusCounts"`
	PriceUpdates int64          `json:"priceUpdates"`
	FirstSeen    time.Time      `json:"firstSeen"`
	LastSeen     time.Time      `json:"lastSeen"`
}

// BulkResult reporta o resultado de uma inserção em lote com sucesso parcial.
// Duplicates contém os índices (no lote de entrada) ignorados por chave repetida.
type BulkResult struct {
	Inserted   int
	Duplicates []int
}
