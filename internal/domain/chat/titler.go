package chat

import (
	"context"

	"ruleout-server/internal/domain/locale"
	"ruleout-server/internal/utils/stringutils"
)

// TitleMaxLength bounds generated conversation titles.
const TitleMaxLength = 50

// Titler names a new conversation from its first question.
type Titler interface {
	Title(ctx context.Context, question string, lang locale.Language) string
}

// HeuristicTitler derives a title from the question text itself.
type HeuristicTitler struct{}

func (HeuristicTitler) Title(_ context.Context, question string, lang locale.Language) string {
	title := stringutils.GenerateTitle(question, TitleMaxLength)
	if title == "" {
		return locale.Text(locale.KeyDefaultChatTitle, lang)
	}
	return title
}
