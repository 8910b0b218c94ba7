package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/radieske/betting-feed-insights/pkg/contracts/feed"
)

// ErrLineParse marca uma linha que não pôde ser decodificada; é contada e pulada
var ErrLineParse = errors.New("line parse error")

// ParseLine decodifica uma linha do feed numa ChangeMessage
func ParseLine(line []byte) (*feed.ChangeMessage, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrLineParse)
	}

	var msg feed.ChangeMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLineParse, err)
	}
	return &msg, nil
}
