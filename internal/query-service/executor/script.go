package executor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var declaration = regexp.MustCompile(`^(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=`)

// SplitScript separa o script em instruções iniciais, executadas como vieram,
// e a última expressão, cujo valor é impresso. Comentários são removidos.
// Instruções terminam em ';' no nível zero ou numa quebra de linha seguida
// de const/let/var/db. quando a linha anterior está completa.
func SplitScript(script string) (prelude []string, expr string) {
	stmts := statements(stripComments(script))
	if len(stmts) == 0 {
		return nil, ""
	}
	expr = stmts[len(stmts)-1]
	if len(stmts) > 1 {
		prelude = stmts[:len(stmts)-1]
	}

	// um script que termina em declaração imprime a variável declarada
	if m := declaration.FindStringSubmatch(expr); m != nil {
		prelude, expr = append(prelude, expr), m[1]
	}
	return prelude, expr
}

// wrapScript monta o arquivo enviado ao shell. O parêntese que envolve a
// expressão fecha em linha própria.
func wrapScript(script string) string {
	prelude, expr := SplitScript(script)
	var b strings.Builder
	for _, st := range prelude {
		b.WriteString(st)
		b.WriteString(";\n")
	}
	fmt.Fprintf(&b, wrapper, expr)
	return b.String()
}

// continuation são os últimos caracteres que deixam a linha incompleta
const continuation = ".,([{+-*/%&|?:=!<>"

func statements(s string) []string {
	var (
		out   []string
		start int
		depth int
	)
	emit := func(end int) {
		if st := strings.TrimSpace(s[start:end]); st != "" {
			out = append(out, st)
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			i = skipScriptString(s, i)
		case c == '/' && startsRegex(s[start:i]):
			i = skipRegex(s, i)
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == ';' && depth == 0:
			emit(i)
			start = i + 1
		case c == '\n' && depth == 0:
			prev := strings.TrimSpace(s[start:i])
			if prev != "" && !strings.ContainsRune(continuation, rune(prev[len(prev)-1])) && opensStatement(s[i+1:]) {
				emit(i)
				start = i + 1
			}
		}
	}
	emit(len(s))
	return out
}

func opensStatement(rest string) bool {
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	for _, kw := range []string{"const ", "let ", "var ", "db."} {
		if strings.HasPrefix(rest, kw) {
			return true
		}
	}
	return false
}

// stripComments remove comentários de linha e de bloco fora de strings e regex
func stripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			end := skipScriptString(s, i)
			b.WriteString(s[i:min(end+1, len(s))])
			i = end
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			b.WriteByte(' ')
			i += end + 3
		case c == '/' && startsRegex(b.String()):
			end := skipRegex(s, i)
			b.WriteString(s[i:min(end+1, len(s))])
			i = end
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// skipScriptString devolve o índice da aspa que fecha a string aberta em i
func skipScriptString(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(s) - 1
}

// startsRegex decide se '/' abre um literal de regex olhando o caractere anterior
func startsRegex(before string) bool {
	before = strings.TrimRightFunc(before, unicode.IsSpace)
	if before == "" {
		return true
	}
	return strings.ContainsRune("(,=:[!&|?{};", rune(before[len(before)-1]))
}

// skipRegex devolve o índice da barra que fecha o literal, respeitando classes [...]
func skipRegex(s string, i int) int {
	inClass := false
	for j := i + 1; j < len(s); j++ {
		switch c := s[j]; {
		case c == '\\':
			j++
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			return j
		case c == '\n':
			return j - 1
		}
	}
	return len(s) - 1
}
