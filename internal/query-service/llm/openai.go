package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Completer é o contrato mínimo com o backend de linguagem: prompt -> texto
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyCompletion quando o backend responde sem nenhuma escolha
var ErrEmptyCompletion = errors.New("llm returned no choices")

// OpenAI implementa Completer sobre qualquer API compatível com OpenAI
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAI cria o cliente; baseURL vazio usa o endpoint oficial
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: 0.1, // scripts precisam ser estáveis entre chamadas
	}
}

// Complete faz uma única chamada de chat, sem streaming e sem retries
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
