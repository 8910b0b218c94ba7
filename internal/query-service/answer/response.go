package answer

import "time"

// Outcome identifica o caminho terminal de uma consulta
type Outcome string

const (
	OutcomeNoScript       Outcome = "no_script"
	OutcomeNoBackend      Outcome = "no_backend"
	OutcomeExecutionError Outcome = "execution_error"
	OutcomeEmptyResult    Outcome = "empty_result"
	OutcomeSuccess        Outcome = "success"
)

const (
	confidenceDegraded = 0.7
	confidenceAnswered = 0.95
)

const (
	msgNoScript = "I couldn't generate a database query for that question. " +
		"I can still help with general questions about markets, runners, prices and events; try rephrasing it."
	msgNoBackend      = "The database is currently unavailable, so the generated query could not be run."
	msgExecutionError = "There was an error executing the query: "
	msgEmptyResult    = "No matching data was found for your query."
)

// Response tem sempre o mesmo conjunto de campos, qualquer que seja o desfecho
type Response struct {
	Query           string    `json:"query"`
	Timestamp       time.Time `json:"timestamp"`
	Confidence      float64   `json:"confidence"`
	MongoScript     string    `json:"mongoScript"`
	Explanation     string    `json:"explanation"`
	MongoResults    []any     `json:"mongoResults"`
	Message         string    `json:"message"`
	Outcome         Outcome   `json:"outcome"`
	ScriptGenerated bool      `json:"scriptGenerated"`
	NoResultsFound  bool      `json:"noResultsFound"`
	ExecutionTimeMs int64     `json:"executionTimeMs"`
}
