package answer

import (
	"encoding/json"
	"strings"
)

// linhas acima disso não vão para o prompt de resumo
const maxSummaryRows = 50

const summaryTemplate = `You are an analyst for a sports betting exchange.
A user asked: {{QUERY}}

The database returned these rows as JSON:
{{ROWS}}

Write a short conversational answer in the user's language.
Use bullet points, grouping related items (by event, market or runner).
Mention concrete values such as prices, statuses and times. Do not invent data that is not in the rows.`

func buildSummaryPrompt(query string, rows []any) (string, error) {
	if len(rows) > maxSummaryRows {
		rows = rows[:maxSummaryRows]
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return strings.NewReplacer("{{QUERY}}", query, "{{ROWS}}", string(b)).Replace(summaryTemplate), nil
}

// rawDump é o fallback quando o resumo pelo modelo falha
func rawDump(rows []any) string {
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "Here are the results."
	}
	return "Here are the results:\n" + string(b)
}
