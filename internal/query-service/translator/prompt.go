package translator

import "strings"

// instruções fixas; {{QUERY}} é substituído pela pergunta do usuário
const promptTemplate = `You translate questions about a sports betting exchange feed into MongoDB shell scripts.

Collections:
- marketDefs: one document per market definition change.
  Fields: marketId, changeId, timestamp, publishTime, status (OPEN|SUSPENDED|CLOSED), name,
  eventId, eventName, eventTypeId, marketType, bettingType, numberOfWinners,
  numberOfActiveRunners, inPlay, turnInPlayEnabled, bspMarket, complete, betDelay, version,
  marketTime, suspendTime, openDate, settledTime, venue, countryCode, timezone,
  runners [{id, name, status (ACTIVE|REMOVED|WINNER|LOSER), sortPriority, adjustmentFactor}].
- marketStatuses: one document per observed status.
  Fields: marketId, status, timestamp, changeId, eventId, eventName, activeRunnerCount.
- priceUpdates: one document per traded price of a runner.
  Fields: marketId, runnerId, runnerName, lastTradedPrice, timestamp, changeId, publishTime,
  eventId, eventName.

Records are append-only: the current state of a market is its most recent document by timestamp.

Rules:
- Use only read operations: find, findOne, aggregate, countDocuments, distinct.
- Always start with db.<collection>.
- Limit result sets to at most 50 documents unless the question asks for a count.
- Never modify, delete or drop data. Never use $where, $function or $accumulator.
- Write a single expression, without variable declarations and without a trailing semicolon.

Reply with JSON only, exactly in this shape:
{"mongoScript": "<script>", "explanation": "<one sentence describing what the script returns>"}

Question: {{QUERY}}`

// BuildPrompt mescla a pergunta no template
func BuildPrompt(query string) string {
	return strings.Replace(promptTemplate, "{{QUERY}}", strings.TrimSpace(query), 1)
}
