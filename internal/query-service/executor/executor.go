// Package executor roda scripts já sanitizados no shell do próprio banco,
// num processo separado. O script nunca é avaliado dentro deste processo.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betting-feed-insights/internal/shared/logger"
)

// Result é o retorno da execução; Success=false sempre traz Error legível
type Result struct {
	Success         bool   `json:"success"`
	Data            []any  `json:"data"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMs int64  `json:"executionTimeMs"`
}

// o cursor é materializado para que o shell imprima as linhas e não o objeto
const wrapper = "const __out = (\n%s\n);\nprintjson(__out && typeof __out.toArray === \"function\" ? __out.toArray() : __out);\n"

// Executor chama `<shell> <uri> --quiet --file <tmp>`
type Executor struct {
	log       *zap.Logger
	shellPath string
	uri       string

	TempDir    string                              // vazio usa o diretório temporário do sistema
	OnExecuted func(d time.Duration, success bool) // métricas
}

func New(log *zap.Logger, shellPath, uri string) *Executor {
	return &Executor{log: logger.OrNop(log), shellPath: shellPath, uri: uri}
}

// Available indica se há conexão configurada para executar scripts
func (e *Executor) Available() bool {
	return e != nil && e.uri != "" && e.shellPath != ""
}

// Execute roda o script até o fim ou até ctx ser cancelado pelo chamador.
// Nunca entra em pânico e nunca devolve erro: falhas vão em Result.Error.
func (e *Executor) Execute(ctx context.Context, script string) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{Error: fmt.Sprintf("script execution failed: %v", r)}
		}
		res.ExecutionTimeMs = time.Since(start).Milliseconds()
		if res.Data == nil {
			res.Data = []any{}
		}
		if e.OnExecuted != nil {
			e.OnExecuted(time.Since(start), res.Success)
		}
	}()

	path, err := e.writeScript(script)
	if err != nil {
		return Result{Error: fmt.Sprintf("prepare script: %v", err)}
	}
	defer os.Remove(path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.shellPath, e.uri, "--quiet", "--file", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := failureText(stderr.String(), stdout.String(), err)
		e.log.Warn("script execution failed", zap.Error(err), zap.String("detail", msg))
		return Result{Error: "script execution failed: " + msg}
	}

	data, err := ParseOutput(stdout.String())
	if err != nil {
		e.log.Warn("unparseable shell output", zap.Int("bytes", stdout.Len()))
		return Result{Error: err.Error()}
	}
	return Result{Success: true, Data: data}
}

func (e *Executor) writeScript(script string) (string, error) {
	f, err := os.CreateTemp(e.TempDir, "query-*.js")
	if err != nil {
		return "", err
	}
	path := f.Name()

	if _, err := f.WriteString(wrapScript(script)); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// failureText prefere stderr; sem ele usa o stdout filtrado e por fim o erro do processo
func failureText(stderr, stdout string, err error) string {
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	if s := strings.TrimSpace(strings.Join(contentLines(stdout), "\n")); s != "" {
		return s
	}
	return err.Error()
}
