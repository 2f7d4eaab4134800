// Package locale holds the user-facing strings the server produces in the
// three supported interface languages.
package locale

import "strings"

// Language is the display name the Q&A backend expects in requests.
type Language string

const (
	English  Language = "English"
	Korean   Language = "한국어"
	Japanese Language = "日本語"
)

// Parse accepts display names and short tags. Unknown values map to English.
func Parse(raw string) Language {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "한국어", "ko", "ko-kr", "korean":
		return Korean
	case "日本語", "ja", "ja-jp", "japanese":
		return Japanese
	default:
		return English
	}
}

// Key identifies a catalog entry.
type Key string

const (
	KeyTranslating       Key = "translating"
	KeyEmbedding         Key = "embedding"
	KeySearching         Key = "searching"
	KeyGenerating        Key = "generating"
	KeyScopeFallback     Key = "scope_fallback"
	KeyCouldNotGenerate  Key = "could_not_generate"
	KeyDefaultProject    Key = "default_project"
	KeyDefaultChatTitle  Key = "default_chat_title"
	KeyRequestCancelled  Key = "request_cancelled"
	KeyGenerationFailure Key = "generation_failure"
)

var catalog = map[Key]map[Language]string{
	KeyTranslating: {
		English:  "Understanding your question",
		Korean:   "질문 이해 중",
		Japanese: "質問を理解中",
	},
	KeyEmbedding: {
		English:  "Converting to vector",
		Korean:   "벡터로 변환 중",
		Japanese: "ベクトルに変換中",
	},
	KeySearching: {
		English:  "Searching veterinary literature and clinical guidelines",
		Korean:   "수의학 문헌 및 임상 가이드라인 검색 중",
		Japanese: "獣医学文献および臨床ガイドライン検索中",
	},
	KeyGenerating: {
		English:  "Synthesizing relevant information",
		Korean:   "관련 정보 종합 중",
		Japanese: "関連情報を統合中",
	},
	KeyScopeFallback: {
		English:  "Ruleout is designed to help veterinarians make evidence-based clinical decisions.\n\nTry asking a question like:\n\"What diagnostic tests should I order for a dog with suspected acute heart failure?\"",
		Korean:   "Ruleout은 수의사가 근거 기반 임상 결정을 내리도록 돕기 위해 설계되었습니다.\n\n다음과 같은 질문을 시도해보세요:\n\"급성 심부전이 의심되는 개에게 어떤 진단 검사를 지시해야 하나요?\"",
		Japanese: "Ruleoutは、獣医師がエビデンスに基づいた臨床判断を下すのを支援するために設計されています。\n\n次のような質問を試してみてください：\n「急性心不全が疑われる犬にどのような診断検査を指示すべきですか？\"",
	},
	KeyCouldNotGenerate: {
		English:  "Unable to generate a response.",
		Korean:   "응답을 생성할 수 없습니다.",
		Japanese: "回答を生成できませんでした。",
	},
	KeyDefaultProject: {
		English:  "New Project",
		Korean:   "새 프로젝트",
		Japanese: "新しいプロジェクト",
	},
	KeyDefaultChatTitle: {
		English:  "New chat",
		Korean:   "새 채팅",
		Japanese: "新しいチャット",
	},
	// These two are shown verbatim in every language.
	KeyRequestCancelled: {
		English: "_Request cancelled._",
	},
	KeyGenerationFailure: {
		English: "Sorry, an error occurred while generating the response.",
	},
}

// Text returns the message for key in lang, falling back to English.
func Text(key Key, lang Language) string {
	entries, ok := catalog[key]
	if !ok {
		return ""
	}
	if text, ok := entries[lang]; ok {
		return text
	}
	return entries[English]
}
