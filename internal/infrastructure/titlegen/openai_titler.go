package titlegen

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"ruleout-server/internal/domain/chat"
	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/utils/stringutils"
)

const (
	requestTimeout = 10 * time.Second
	maxTokens      = 24
)

const systemPrompt = "You name veterinary consultation chats. Reply with a short title of at most six words " +
	"in the same language as the question. No quotes, no trailing punctuation."

// OpenAITitler asks an OpenAI compatible model for a title and falls back
// to the heuristic title when the model fails or answers with nothing.
type OpenAITitler struct {
	client   *openai.Client
	model    string
	fallback chat.Titler
	log      zerolog.Logger
}

var _ chat.Titler = (*OpenAITitler)(nil)

func NewOpenAITitler(baseURL, apiKey, model string, log zerolog.Logger) *OpenAITitler {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	return &OpenAITitler{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		fallback: chat.HeuristicTitler{},
		log:      log.With().Str("component", "titlegen").Logger(),
	}
}

func (t *OpenAITitler) Title(ctx context.Context, question string, lang locale.Language) string {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.model,
		MaxTokens:   maxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		t.log.Warn().Err(err).Msg("title model failed, using heuristic title")
		return t.fallback.Title(ctx, question, lang)
	}
	if len(resp.Choices) == 0 {
		return t.fallback.Title(ctx, question, lang)
	}

	title := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"'`)
	title = stringutils.TruncateTitle(stringutils.SanitizeTitleContent(title), chat.TitleMaxLength)
	if title == "" {
		return t.fallback.Title(ctx, question, lang)
	}
	return title
}
