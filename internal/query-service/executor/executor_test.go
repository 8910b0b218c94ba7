package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeShell cria um executável que imita o shell do banco: guarda o caminho e o
// conteúdo do script recebido em --file e imprime body (ou falha com exit 1).
func fakeShell(t *testing.T, body string, fail bool) (shell, captured string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake shell needs /bin/sh")
	}
	dir := t.TempDir()
	captured = filepath.Join(dir, "captured")

	exit := "0"
	stream := ""
	if fail {
		exit = "1"
		stream = " 1>&2"
	}
	script := "#!/bin/sh\n" +
		"echo \"$4\" > " + captured + ".path\n" +
		"cat \"$4\" > " + captured + ".js\n" +
		"echo \"$1 $2 $3\" > " + captured + ".args\n" +
		"cat <<'OUT'" + stream + "\n" + body + "\nOUT\n" +
		"exit " + exit + "\n"

	shell = filepath.Join(dir, "mongosh")
	if err := os.WriteFile(shell, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return shell, captured
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(string(b))
}

func TestExecute_Success(t *testing.T) {
	shell, captured := fakeShell(t, "Current Mongosh Log ID: 1\n[ { marketId: '1.23', status: 'OPEN' } ]", false)

	var observed bool
	e := New(nil, shell, "mongodb://localhost:27017/betting_feed")
	e.TempDir = t.TempDir()
	e.OnExecuted = func(_ time.Duration, success bool) { observed = success }

	res := e.Execute(context.Background(), `db.marketDefs.find({status:"OPEN"})`)
	if !res.Success {
		t.Fatalf("Execute failed: %s", res.Error)
	}
	if len(res.Data) != 1 {
		t.Fatalf("data = %#v", res.Data)
	}
	row := res.Data[0].(map[string]any)
	if row["marketId"] != "1.23" {
		t.Errorf("row = %#v", row)
	}
	if !observed {
		t.Error("OnExecuted not called with success")
	}

	js := readFile(t, captured+".js")
	if !strings.Contains(js, "const __out = (\n"+`db.marketDefs.find({status:"OPEN"})`+"\n);") {
		t.Errorf("wrapped script = %q", js)
	}
	if !strings.Contains(js, "printjson(") {
		t.Errorf("missing printjson: %q", js)
	}
	if args := readFile(t, captured+".args"); args != "mongodb://localhost:27017/betting_feed --quiet --file" {
		t.Errorf("args = %q", args)
	}
	if _, err := os.Stat(readFile(t, captured+".path")); !os.IsNotExist(err) {
		t.Errorf("temp script not removed: %v", err)
	}
}

func TestExecute_CommentedAndMultiStatementScripts(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{
			"trailing line comment",
			`db.marketDefs.find({status:"OPEN"}).limit(5) // open markets`,
			"const __out = (\n" + `db.marketDefs.find({status:"OPEN"}).limit(5)` + "\n);",
		},
		{
			"declaration before query",
			"const since = new Date(Date.now() - 3600e3);\ndb.priceUpdates.find({timestamp:{$gte:since}})",
			"const since = new Date(Date.now() - 3600e3);\nconst __out = (\ndb.priceUpdates.find({timestamp:{$gte:since}})\n);",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shell, captured := fakeShell(t, "[]", false)
			e := New(nil, shell, "mongodb://localhost:27017")
			e.TempDir = t.TempDir()

			if res := e.Execute(context.Background(), tt.script); !res.Success {
				t.Fatalf("Execute failed: %s", res.Error)
			}
			js := readFile(t, captured+".js")
			if !strings.HasPrefix(js, tt.want) {
				t.Errorf("wrapped script = %q, want prefix %q", js, tt.want)
			}
			if strings.Contains(js, "open markets") {
				t.Errorf("comment kept: %q", js)
			}
		})
	}
}

func TestExecute_ShellFailure(t *testing.T) {
	shell, captured := fakeShell(t, "MongoServerError: unknown operator: $foo", true)

	e := New(nil, shell, "mongodb://localhost:27017")
	e.TempDir = t.TempDir()

	res := e.Execute(context.Background(), `db.marketDefs.find({$foo:1})`)
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "unknown operator: $foo") {
		t.Errorf("error = %q", res.Error)
	}
	if res.Data == nil || len(res.Data) != 0 {
		t.Errorf("data = %#v, want empty", res.Data)
	}
	if _, err := os.Stat(readFile(t, captured+".path")); !os.IsNotExist(err) {
		t.Errorf("temp script not removed on failure: %v", err)
	}
}

func TestExecute_MissingShell(t *testing.T) {
	dir := t.TempDir()
	e := New(nil, filepath.Join(dir, "no-such-shell"), "mongodb://localhost:27017")
	e.TempDir = dir

	res := e.Execute(context.Background(), "db.marketDefs.find()")
	if res.Success || res.Error == "" {
		t.Fatalf("res = %+v", res)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp dir not clean: %v", entries)
	}
}

func TestAvailable(t *testing.T) {
	var nilExec *Executor
	if nilExec.Available() {
		t.Error("nil executor reported available")
	}
	if New(nil, "mongosh", "").Available() {
		t.Error("executor without uri reported available")
	}
	if !New(nil, "mongosh", "mongodb://x").Available() {
		t.Error("configured executor reported unavailable")
	}
}
