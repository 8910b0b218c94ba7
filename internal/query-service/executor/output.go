package executor

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrUnparseableOutput quando nenhuma parte da saída vira JSON
var ErrUnparseableOutput = errors.New("unparseable shell output")

// linhas de banner/conexão que o shell imprime mesmo com --quiet
var noisePrefixes = []string{
	"Current Mongosh Log ID:",
	"Connecting to:",
	"Using MongoDB:",
	"Using Mongosh:",
	"For mongosh info see:",
	"MongoDB shell version",
	"connecting to:",
	"Implicit session:",
	"MongoDB server version:",
	"The server generated these startup warnings",
	"WARNING:",
	"Warning:",
	"(node:",
	"------",
	`{"t":{"$date"`,
}

var (
	stringHelper = regexp.MustCompile(`\b(?:ObjectId|ISODate|UUID)\(\s*['"]([^'"]*)['"]\s*\)`)
	numberHelper = regexp.MustCompile(`\b(?:NumberLong|NumberInt|NumberDecimal|Long|Int32|Double|Decimal128)\(\s*['"]?(-?[0-9][0-9.eE+-]*)['"]?\s*\)`)
)

// ParseOutput converte a saída textual do shell em linhas estruturadas.
// Tenta um documento único; se falhar, cada linha é lida isoladamente e as
// que não viram JSON entram como string crua.
func ParseOutput(out string) ([]any, error) {
	lines := contentLines(out)
	if len(lines) == 0 {
		return []any{}, nil
	}

	var v any
	if err := json.Unmarshal([]byte(Coerce(strings.Join(lines, "\n"))), &v); err == nil {
		return rows(v), nil
	}

	data := make([]any, 0, len(lines))
	parsed := 0
	for _, line := range lines {
		var lv any
		if err := json.Unmarshal([]byte(Coerce(line)), &lv); err != nil {
			data = append(data, line)
			continue
		}
		parsed++
		data = append(data, lv)
	}
	if parsed == 0 {
		return nil, ErrUnparseableOutput
	}
	return data, nil
}

func contentLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" || isNoise(strings.TrimSpace(l)) {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func isNoise(line string) bool {
	for _, p := range noisePrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// rows garante que o resultado é sempre uma lista
func rows(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	default:
		return []any{t}
	}
}

// Coerce aproxima a notação do shell de JSON: desembrulha helpers como
// ObjectId('..'), troca aspas simples por duplas e coloca aspas nas chaves.
// Valores com aspas ou dois-pontos dentro de strings podem sair errados.
func Coerce(s string) string {
	s = stringHelper.ReplaceAllString(s, `"$1"`)
	s = numberHelper.ReplaceAllString(s, `$1`)

	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			j := skipString(s, i, '"')
			b.WriteString(s[i:j])
			i = j
		case c == '\'':
			j := skipString(s, i, '\'')
			// string sem fechamento vai até o fim da entrada
			end := j
			if end > i+1 && s[end-1] == '\'' {
				end--
			}
			writeSingleQuoted(&b, s[i+1:end])
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			word := s[i:j]
			if isKey(s, j) {
				b.WriteString(`"` + word + `"`)
			} else if word == "undefined" {
				b.WriteString("null")
			} else {
				b.WriteString(word)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// skipString devolve o índice após a aspa de fechamento
func skipString(s string, start int, quote byte) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return len(s)
}

func writeSingleQuoted(b *strings.Builder, body string) {
	b.WriteByte('"')
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body) && body[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(body):
			b.WriteByte(c)
			b.WriteByte(body[i+1])
			i++
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}

// isKey verifica se o identificador terminado em j é seguido por ':'
func isKey(s string, j int) bool {
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	return j < len(s) && s[j] == ':'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
