package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Embedder turns text into a vector for semantic matching.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Translator renders text from one content language into another.
type Translator interface {
	Translate(ctx context.Context, text string, from, to models.Language) (string, error)
}

// AIProvider calls one configured AI provider. The same dispatch serves
// embeddings and translation; each consumer has its own settings.
type AIProvider struct {
	cfg   config.ProviderConfig
	usage *AIUsageService
}

// NewEmbedder returns nil when no embedding provider is configured. usage
// may be nil.
func NewEmbedder(cfg *config.ProviderConfig, usage *AIUsageService) Embedder {
	if !cfg.Enabled() {
		return nil
	}
	return &AIProvider{cfg: *cfg, usage: usage}
}

// NewTranslator returns nil when no translation provider is configured.
func NewTranslator(cfg *config.ProviderConfig, usage *AIUsageService) Translator {
	if !cfg.Enabled() {
		return nil
	}
	return &AIProvider{cfg: *cfg, usage: usage}
}

func (p *AIProvider) record(ctx context.Context, operation string, inputChars int, start time.Time, err error) {
	entry := &models.AIUsageLog{
		Operation:  operation,
		Provider:   p.cfg.Provider,
		Model:      p.cfg.Model,
		InputChars: inputChars,
		LatencyMs:  time.Since(start).Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	p.usage.Record(ctx, entry)
}

func (p *AIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty text")
	}

	start := time.Now()
	var vec []float32
	var err error
	switch p.cfg.Provider {
	case "ollama":
		vec, err = p.embedOllama(ctx, text)
	case "gemini":
		vec, err = p.embedGemini(ctx, text)
	case "anthropic":
		return nil, fmt.Errorf("anthropic has no embeddings API: %w", ErrNotConfigured)
	default:
		// openai, azure and OpenAI-compatible services
		vec, err = p.embedOpenAI(ctx, text)
	}
	if err == nil && len(vec) == 0 {
		err = fmt.Errorf("%s returned an empty embedding", p.cfg.Provider)
	}
	p.record(ctx, "embed", len(text), start, err)
	if err != nil {
		logger.Warn().Err(err).Str("provider", p.cfg.Provider).Msg("[AI] Embedding failed")
		return nil, err
	}
	return vec, nil
}

func (p *AIProvider) openAIClient() *openai.Client {
	if p.cfg.Provider == "azure" {
		// Azure requires BaseURL format: https://{resource-name}.openai.azure.com
		return openai.NewClientWithConfig(openai.DefaultAzureConfig(p.cfg.APIKey, p.cfg.BaseURL))
	}
	clientConfig := openai.DefaultConfig(p.cfg.APIKey)
	if p.cfg.BaseURL != "" {
		clientConfig.BaseURL = p.cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

func (p *AIProvider) embedOpenAI(ctx context.Context, text string) ([]float32, error) {
	model := p.cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	resp, err := p.openAIClient().CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding from OpenAI")
	}
	return resp.Data[0].Embedding, nil
}

func (p *AIProvider) ollamaClient() (*api.Client, error) {
	baseURL := p.cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	return api.NewClient(u, http.DefaultClient), nil
}

func (p *AIProvider) embedOllama(ctx context.Context, text string) ([]float32, error) {
	client, err := p.ollamaClient()
	if err != nil {
		return nil, err
	}

	model := p.cfg.Model
	if model == "" {
		model = "nomic-embed-text"
	}

	resp, err := client.Embed(ctx, &api.EmbedRequest{Model: model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("Ollama API error: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding from Ollama")
	}
	return resp.Embeddings[0], nil
}

func (p *AIProvider) geminiClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: p.cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("Gemini client error: %w", err)
	}
	return client, nil
}

func (p *AIProvider) embedGemini(ctx context.Context, text string) ([]float32, error) {
	client, err := p.geminiClient(ctx)
	if err != nil {
		return nil, err
	}

	model := p.cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}

	resp, err := client.Models.EmbedContent(ctx, model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding from Gemini")
	}
	return resp.Embeddings[0].Values, nil
}

var languageNames = map[models.Language]string{
	models.LangEN: "English",
	models.LangAR: "Modern Standard Arabic",
}

func translationPrompt(text string, from, to models.Language) string {
	return fmt.Sprintf("Translate the following %s text into %s. "+
		"It is content from a learning and development marketplace. "+
		"Reply with the translation only, keeping line breaks and any names or URLs unchanged.\n\n%s",
		languageNames[from], languageNames[to], text)
}

func (p *AIProvider) Translate(ctx context.Context, text string, from, to models.Language) (string, error) {
	if !from.Valid() || !to.Valid() {
		return "", fmt.Errorf("unsupported language pair %s->%s", from, to)
	}
	if from == to || strings.TrimSpace(text) == "" {
		return text, nil
	}

	start := time.Now()
	out, err := p.complete(ctx, translationPrompt(text, from, to))
	out = strings.TrimSpace(out)
	if err == nil && out == "" {
		err = fmt.Errorf("%s returned an empty translation", p.cfg.Provider)
	}
	p.record(ctx, "translate", len(text), start, err)
	if err != nil {
		logger.Warn().Err(err).Str("provider", p.cfg.Provider).Msg("[AI] Translation failed")
		return "", err
	}
	return out, nil
}

func (p *AIProvider) complete(ctx context.Context, prompt string) (string, error) {
	switch p.cfg.Provider {
	case "anthropic":
		return p.completeAnthropic(ctx, prompt)
	case "ollama":
		return p.completeOllama(ctx, prompt)
	case "gemini":
		return p.completeGemini(ctx, prompt)
	default:
		return p.completeOpenAI(ctx, prompt)
	}
}

func (p *AIProvider) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	model := p.cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	resp, err := p.openAIClient().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *AIProvider) completeAnthropic(ctx context.Context, prompt string) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(p.cfg.APIKey)}
	if p.cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(p.cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	model := p.cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}

func (p *AIProvider) completeOllama(ctx context.Context, prompt string) (string, error) {
	client, err := p.ollamaClient()
	if err != nil {
		return "", err
	}

	model := p.cfg.Model
	if model == "" {
		model = "llama3"
	}

	stream := false
	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	return content.String(), nil
}

func (p *AIProvider) completeGemini(ctx context.Context, prompt string) (string, error) {
	client, err := p.geminiClient(ctx)
	if err != nil {
		return "", err
	}

	model := p.cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return resp.Text(), nil
}

// FillTranslations translates every localized field of entity that has
// text in one language only. It reports whether anything changed.
func FillTranslations(ctx context.Context, tr Translator, entity models.Translatable) (bool, error) {
	if tr == nil {
		return false, nil
	}

	changed := false
	for _, field := range entity.LocalizedFields() {
		from, src, ok := field.Source()
		if !ok {
			continue
		}
		for _, to := range models.Languages {
			if field.Has(to) {
				continue
			}
			pctx, cancel := providerContext(ctx)
			out, err := tr.Translate(pctx, src, from, to)
			cancel()
			if err != nil {
				return changed, fmt.Errorf("translate %s->%s: %v: %w", from, to, err, ErrUpstream)
			}
			field.Set(to, out)
			changed = true
		}
	}
	return changed, nil
}

type TranslateRequest struct {
	Text   string          `json:"text" binding:"required,max=5000"`
	Source models.Language `json:"source" binding:"omitempty,oneof=en ar"`
	Target models.Language `json:"target" binding:"required,oneof=en ar"`
}

type TranslateResult struct {
	Text   string          `json:"text"`
	Source models.Language `json:"source"`
	Target models.Language `json:"target"`
}

// TranslateText serves ad-hoc translation requests. Without a source
// language the text is taken as Arabic when it contains Arabic letters.
func TranslateText(ctx context.Context, tr Translator, req *TranslateRequest) (*TranslateResult, error) {
	if tr == nil {
		return nil, fmt.Errorf("translation: %w", ErrNotConfigured)
	}
	source := req.Source
	if source == "" {
		source = detectLanguage(req.Text)
	}

	pctx, cancel := providerContext(ctx)
	defer cancel()
	out, err := tr.Translate(pctx, req.Text, source, req.Target)
	if err != nil {
		return nil, fmt.Errorf("translate %s->%s: %v: %w", source, req.Target, err, ErrUpstream)
	}
	return &TranslateResult{Text: out, Source: source, Target: req.Target}, nil
}

func detectLanguage(text string) models.Language {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return models.LangAR
		}
	}
	return models.LangEN
}
