package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultModel   = openai.GPT4oMini
	defaultTimeout = 45 * time.Second

	// enrichBatchSize bounds how many item lines go into one completion
	// request; large coupons are split and the batches reassembled in order.
	enrichBatchSize = 25
)

const extractSystemPrompt = `Você extrai dados estruturados de cupons e notas fiscais brasileiras.
Responda somente com um objeto JSON com os campos: access_key, invoice_number,
series, issue_date (ISO 8601), merchant {tax_id, legal_name, trade_name,
address, city, state}, items [{description, product_code, ncm_code, quantity,
unit_price, total_price, discount}], totals {subtotal, discount, tax, total} e
category. Valores numéricos com ponto decimal. Use "" para campos ausentes.`

const enrichSystemPrompt = `Você normaliza itens extraídos de cupons fiscais brasileiros.
Receberá um JSON {"items": [...]} e deve responder {"items": [...]} com a mesma
quantidade de itens, na mesma ordem, cada um com: description (limpa, sem
abreviações), product_code, ncm_code, quantity, unit_price, total_price,
discount. Valores numéricos com ponto decimal.`

// OpenAIOracle implements Oracle over the OpenAI chat-completions API.
type OpenAIOracle struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

type OpenAIOption func(*OpenAIOracle)

func WithModel(model string) OpenAIOption {
	return func(o *OpenAIOracle) { o.model = model }
}

func WithTimeout(d time.Duration) OpenAIOption {
	return func(o *OpenAIOracle) { o.timeout = d }
}

func NewOpenAIOracle(apiKey string, opts ...OpenAIOption) *OpenAIOracle {
	o := &OpenAIOracle{
		client:  openai.NewClient(apiKey),
		model:   defaultModel,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *OpenAIOracle) ExtractInvoice(ctx context.Context, text, knownKey string) (*InvoiceExtraction, error) {
	user := text
	if knownKey != "" {
		user = "Chave de acesso conhecida: " + knownKey + "\n\n" + text
	}

	content, err := o.complete(ctx, extractSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var ext InvoiceExtraction
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &ext); err != nil {
		return nil, &Error{Code: CodeBadAnswer, Message: "oracle response is not valid JSON", Err: err}
	}

	if err := validateExtraction(&ext); err != nil {
		return nil, err
	}

	if ext.AccessKey == "" {
		ext.AccessKey = knownKey
	}

	return &ext, nil
}

func (o *OpenAIOracle) EnrichItems(ctx context.Context, items []RawItem) ([]EnrichedItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	out := make([]EnrichedItem, 0, len(items))

	for start := 0; start < len(items); start += enrichBatchSize {
		end := min(start+enrichBatchSize, len(items))

		batch, err := o.enrichBatch(ctx, items[start:end])
		if err != nil {
			return nil, err
		}

		out = append(out, batch...)
	}

	return out, nil
}

func (o *OpenAIOracle) enrichBatch(ctx context.Context, items []RawItem) ([]EnrichedItem, error) {
	payload, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return nil, fmt.Errorf("marshal enrich request: %w", err)
	}

	content, err := o.complete(ctx, enrichSystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []EnrichedItem `json:"items"`
	}

	if err := json.Unmarshal([]byte(extractJSONObject(content)), &resp); err != nil {
		return nil, &Error{Code: CodeBadAnswer, Message: "enrich response is not valid JSON", Err: err}
	}

	if len(resp.Items) != len(items) {
		return nil, &ValidationError{Failures: []string{
			fmt.Sprintf("enrich response has %d items, want %d", len(resp.Items), len(items)),
		}}
	}

	return resp.Items, nil
}

// complete runs one bounded chat completion. A single attempt, no retries:
// retry policy belongs to callers, per the error-handling contract.
func (o *OpenAIOracle) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &Error{Code: CodeTimeout, Message: "oracle call exceeded timeout", Err: err}
		}

		return "", &Error{Code: CodeNetwork, Message: "oracle call failed", Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Code: CodeBadAnswer, Message: "oracle returned no choices"}
	}

	return resp.Choices[0].Message.Content, nil
}

// extractJSONObject trims anything the model wrapped around the JSON object,
// markdown fences included.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")

	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}

	return s[start : end+1]
}
