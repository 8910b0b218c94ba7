// Package translator pede ao backend de linguagem um script de consulta para
// uma pergunta em texto livre e extrai a resposta estruturada.
package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/query-service/llm"
	"github.com/radieske/betting-feed-insights/internal/shared/logger"
)

var (
	// ErrTranslationFailed quando a resposta não contém o JSON esperado
	ErrTranslationFailed = errors.New("translation failed")
	// ErrBackendUnavailable quando a chamada ao modelo falha (rede, cota)
	ErrBackendUnavailable = errors.New("language backend unavailable")
)

// Translation é o payload pedido ao modelo
type Translation struct {
	Script      string `json:"mongoScript"`
	Explanation string `json:"explanation"`
}

var fencedBlock = regexp.MustCompile("(?is)```(?:json|javascript|js)?[ \\t]*\\n?(.*?)```")

// Translator faz uma única chamada ao modelo por pergunta
type Translator struct {
	log *zap.Logger
	llm llm.Completer
}

func New(log *zap.Logger, c llm.Completer) *Translator {
	return &Translator{log: logger.OrNop(log), llm: c}
}

// Translate devolve o script candidato (ainda não sanitizado) e sua explicação
func (t *Translator) Translate(ctx context.Context, query string) (Translation, error) {
	raw, err := t.llm.Complete(ctx, BuildPrompt(query))
	if err != nil {
		return Translation{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	tr, err := ParseResponse(raw)
	if err != nil {
		t.log.Warn("unparseable translation", zap.Int("bytes", len(raw)))
		return Translation{}, err
	}
	return tr, nil
}

// ParseResponse tenta, nesta ordem: corpo inteiro, bloco cercado por ``` e
// primeiro trecho delimitado por chaves balanceadas.
func ParseResponse(raw string) (Translation, error) {
	raw = strings.TrimSpace(raw)

	if tr, ok := decode(raw); ok {
		return tr, nil
	}
	for _, m := range fencedBlock.FindAllStringSubmatch(raw, -1) {
		if tr, ok := decode(strings.TrimSpace(m[1])); ok {
			return tr, nil
		}
	}
	if obj, ok := firstObject(raw); ok {
		if tr, ok := decode(obj); ok {
			return tr, nil
		}
	}
	return Translation{}, ErrTranslationFailed
}

func decode(s string) (Translation, bool) {
	if !strings.HasPrefix(s, "{") {
		return Translation{}, false
	}
	var tr Translation
	if err := json.Unmarshal([]byte(s), &tr); err != nil {
		return Translation{}, false
	}
	return tr, true
}

// firstObject acha o primeiro {...} balanceado, ignorando chaves dentro de strings
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
