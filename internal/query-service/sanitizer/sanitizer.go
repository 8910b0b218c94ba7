// Package sanitizer normaliza o script vindo do modelo e barra operações
// perigosas antes de qualquer execução.
package sanitizer

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrUnsafeScript é o sinal fixo de rejeição; nada do script é executado
	ErrUnsafeScript = errors.New("unsafe script rejected: it contains a forbidden operation")
	// ErrNotAScript quando o modelo devolveu texto sem nenhuma referência a db.
	ErrNotAScript = errors.New("response is not a database script")
)

// Rule é um padrão proibido com nome legível para logs
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

func rule(name, expr string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(`(?i)` + expr)}
}

// DenyList é conservadora: qualquer ocorrência rejeita o script inteiro
var DenyList = []Rule{
	// administrativas / destrutivas
	rule("drop database", `dropDatabase`),
	rule("drop collection", `\.drop\s*\(`),
	rule("drop index", `dropIndex`),
	rule("rename collection", `renameCollection`),
	rule("admin command", `adminCommand|runCommand|getSiblingDB|\bdb\.admin\b`),
	rule("shutdown", `shutdown`),
	rule("fsync lock", `fsyncLock`),
	rule("user management", `(create|drop|update)User|dropAllUsers|(grant|revoke)RolesTo|(create|drop|update)Role|dropAllRoles`),
	rule("new connection", `\bMongo\s*\(|\bconnect\s*\(`),

	// avaliação de código
	rule("eval", `\beval\s*\(`),
	rule("function constructor", `\bFunction\s*\(`),
	rule("timers", `setTimeout|setInterval`),
	rule("prototype access", `__proto__|\.prototype\b|\bconstructor\b`),
	rule("module loading", `\brequire\s*\(|\bprocess\s*\.|\bload\s*\(|\bquit\s*\(`),
	rule("reflection", `\bReflect\b|\bglobalThis\b|\bProxy\b`),

	// acesso computado esconde o nome do método: db.x["dr"+"op"]()
	rule("computed call", `\]\s*\(`),
	rule("computed member", `[\w)\]]\s*\[\s*["'\x60]`),

	// o ledger é append-only: nenhuma escrita, com ou sem filtro
	rule("document write", `\b(insert|update|replace|delete)(One|Many)\b|\.(insert|update|remove|save)\s*\(`),
	rule("bulk write", `bulkWrite|initialize(Un)?orderedBulkOp`),
	rule("find and modify", `findOneAnd(Delete|Replace|Update)|findAndModify`),
	rule("write stage", `\$out\b|\$merge\b`),

	// javascript no servidor
	rule("server side js", `\$where|\$function|\$accumulator`),
}

var (
	fenceOpen  = regexp.MustCompile("(?i)^```[a-z]*[ \\t]*\\n?")
	fenceClose = regexp.MustCompile("\\n?```$")
	layer      = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\'`, `'`)
	quotes     = strings.NewReplacer(`\"`, `"`, `\'`, `'`)
)

// Normalize remove cercas de markdown, camadas redundantes de aspas externas
// e o escape de aspas acumulado no caminho de ida e volta do modelo.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	// cada camada de aspas carrega um nível de escape
	for len(s) >= 2 && isQuote(s[0]) && s[len(s)-1] == s[0] {
		s = strings.TrimSpace(layer.Replace(s[1 : len(s)-1]))
	}
	s = quotes.Replace(s)
	return strings.TrimSuffix(strings.TrimSpace(s), ";")
}

func isQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`'
}

// Check aplica a deny-list e exige referência a db.
// Devolve o nome da regra violada junto com ErrUnsafeScript.
func Check(script string) (string, error) {
	for _, r := range DenyList {
		if r.Pattern.MatchString(script) {
			return r.Name, ErrUnsafeScript
		}
	}
	if !strings.Contains(strings.ToLower(script), "db.") {
		return "", ErrNotAScript
	}
	return "", nil
}

// Sanitize normaliza e valida; o texto bruto também passa pela deny-list
// para que nenhuma forma de escape esconda um padrão proibido.
func Sanitize(raw string) (string, error) {
	script := Normalize(raw)
	if name, err := Check(raw); errors.Is(err, ErrUnsafeScript) {
		return "", &RejectedError{Rule: name}
	}
	if name, err := Check(script); err != nil {
		if errors.Is(err, ErrUnsafeScript) {
			return "", &RejectedError{Rule: name}
		}
		return "", err
	}
	return script, nil
}

// RejectedError carrega a regra que barrou o script; Error() é sempre o sinal fixo
type RejectedError struct {
	Rule string
}

func (e *RejectedError) Error() string { return ErrUnsafeScript.Error() }

func (e *RejectedError) Unwrap() error { return ErrUnsafeScript }
