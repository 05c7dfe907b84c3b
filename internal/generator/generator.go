package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/unclebandit/autobuzz-backend/internal/config"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
	"github.com/unclebandit/autobuzz-backend/internal/model"
)

const defaultGenre = "テクノロジー"

// Request carries everything a generator may use. Trends is nil when the
// trend source failed; generators then work from the genre alone.
type Request struct {
	Platform model.Platform
	Genre    string
	Trends   *model.TrendData
	Offer    *model.AffiliateOffer
}

func (r Request) genreOrDefault() string {
	if r.Genre != "" {
		return r.Genre
	}
	return defaultGenre
}

// Generator produces post text for one platform.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// NewFromConfig prefers OpenAI, then Gemini, then the offline templates.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger logging.Logger) (Generator, error) {
	switch {
	case cfg.OpenAIAPIKey != "":
		logger.WithField("model", cfg.OpenAIModel).Info("Using OpenAI content generator")
		return NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIURL, cfg.OpenAIModel), nil
	case cfg.GeminiAPIKey != "":
		logger.WithField("model", cfg.GeminiModel).Info("Using Gemini content generator")
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		logger.Info("No LLM key configured, using template content generator")
		return NewTemplateGenerator(), nil
	}
}

// BuildTrendContext renders trend data as prompt context.
func BuildTrendContext(trends *model.TrendData, genre string) string {
	if trends == nil {
		if genre == "" {
			genre = defaultGenre
		}
		return fmt.Sprintf("ジャンル: %s（トレンドデータなし）", genre)
	}

	var parts []string
	if len(trends.GoogleTrends) > 0 {
		words := make([]string, 0, 8)
		for _, item := range head(trends.GoogleTrends, 8) {
			words = append(words, item.Title)
		}
		parts = append(parts, "■ Google急上昇ワード: "+strings.Join(words, ", "))
	}
	if len(trends.News) > 0 {
		lines := make([]string, 0, 5)
		for _, item := range head(trends.News, 5) {
			lines = append(lines, "・"+item.Title)
		}
		parts = append(parts, "■ 最新ニュース:\n"+strings.Join(lines, "\n"))
	}
	if len(trends.XBuzz) > 0 {
		lines := make([]string, 0, 3)
		for _, item := range head(trends.XBuzz, 3) {
			lines = append(lines, "・"+truncateRunes(item.Description, 80))
		}
		parts = append(parts, "■ Xでバズっている投稿:\n"+strings.Join(lines, "\n"))
	}
	if genre != "" {
		parts = append(parts, "■ 指定ジャンル: "+genre)
	}
	if len(parts) == 0 {
		if genre == "" {
			genre = defaultGenre
		}
		return "ジャンル: " + genre
	}
	return strings.Join(parts, "\n\n")
}

func systemPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "あなたは%sでバズる投稿を作成するプロのSNSコピーライターです。\n", req.Platform.DisplayName())
	b.WriteString("以下の現在のトレンドデータを参考にして、バズる投稿を1つ生成してください。\n\n")
	fmt.Fprintf(&b, "【現在のトレンド情報】\n%s\n\n", BuildTrendContext(req.Trends, req.Genre))
	b.WriteString("【投稿ルール】\n")
	fmt.Fprintf(&b, "- %d文字以内\n", req.Platform.CharLimit())
	b.WriteString("- トレンドに乗った内容にする\n")
	b.WriteString("- 共感を呼ぶ・役に立つ・意外性のある内容にする\n")
	b.WriteString("- エンゲージメントが高くなるような文体\n")
	b.WriteString("- ハッシュタグを2-3個含める\n")
	if req.Offer != nil {
		fmt.Fprintf(&b, "- 次の案件を自然に紹介し、URLをそのまま含める: %s %s\n", req.Offer.Title, req.Offer.AffiliateURL)
	}
	b.WriteString("- 投稿文のみを出力し、説明は不要")
	return b.String()
}

const userPrompt = "今のトレンドに基づいてバズる投稿を1つ生成して"

// finalize trims model output and clamps it to the platform limit.
func finalize(content string, platform model.Platform) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("generator returned empty content")
	}
	return truncateRunes(content, platform.CharLimit()), nil
}

func head(items []model.TrendItem, n int) []model.TrendItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
