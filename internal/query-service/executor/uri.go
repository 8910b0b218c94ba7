package executor

import "strings"

// DatabaseURI garante que a URI passada ao shell aponte para o banco do ledger,
// para que `db` no script seja o banco certo. URIs com banco explícito ficam como estão.
// Não usa net/url: URIs com vários hosts ("a:1,b:2") não passam na validação de porta.
func DatabaseURI(uri, database string) string {
	if uri == "" || database == "" {
		return uri
	}
	i := strings.Index(uri, "://")
	if i < 0 {
		return uri
	}
	hostStart := i + 3
	rest := uri[hostStart:]

	end := strings.IndexAny(rest, "/?")
	switch {
	case end < 0:
		return uri + "/" + database
	case rest[end] == '?':
		return uri[:hostStart+end] + "/" + database + rest[end:]
	}

	after := rest[end+1:]
	if after == "" || after[0] == '?' {
		return uri[:hostStart+end+1] + database + after
	}
	return uri
}
