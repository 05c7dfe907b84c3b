package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/unclebandit/autobuzz-backend/internal/model"
)

type templateFunc func(keyword, headline string) string

var templates = []templateFunc{listTemplate, opinionTemplate, tipsTemplate, questionTemplate}

// TemplateGenerator fills one of four fixed templates with the top trend keyword.
// It needs no network access and is used when no LLM key is configured.
type TemplateGenerator struct {
	// Pick returns an index in [0, n); defaults to a random choice.
	Pick func(n int) int
}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{Pick: rand.IntN}
}

func (g *TemplateGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	keyword := req.genreOrDefault()
	var headline string
	if req.Trends != nil {
		if len(req.Trends.TopKeywords) > 0 {
			keyword = req.Trends.TopKeywords[0]
		}
		headline = firstTitle(req.Trends.News)
		if headline == "" {
			headline = firstTitle(req.Trends.GoogleTrends)
		}
	}
	if headline == "" {
		headline = keyword + "の最新動向"
	}

	pick := g.Pick
	if pick == nil {
		pick = rand.IntN
	}
	content := templates[pick(len(templates))](keyword, headline)

	if req.Offer != nil {
		withOffer := fmt.Sprintf("%s\n\n▶ %s\n%s", content, req.Offer.Title, req.Offer.AffiliateURL)
		if utf8.RuneCountInString(withOffer) <= req.Platform.CharLimit() {
			content = withOffer
		}
	}
	return finalize(content, req.Platform)
}

func firstTitle(items []model.TrendItem) string {
	for _, item := range items {
		if item.Title != "" {
			return item.Title
		}
	}
	return ""
}

func hashtag(keyword string) string {
	return "#" + strings.ReplaceAll(keyword, " ", "")
}

func listTemplate(kw, _ string) string {
	return fmt.Sprintf("🔥 今話題の「%s」まとめ！\n\n"+
		"注目ポイント👇\n"+
		"1. 検索トレンドで急上昇中\n"+
		"2. SNSでも多くの反応\n"+
		"3. 今後さらに注目される可能性大\n\n"+
		"知っておかないとヤバいかも...！\n\n"+
		"%s #トレンド #2026", kw, hashtag(kw))
}

func opinionTemplate(kw, headline string) string {
	return fmt.Sprintf("💡 「%s」\n\n"+
		"これ、めちゃくちゃ大事なニュースなのに\n"+
		"まだ知らない人が多すぎる。\n\n"+
		"今のうちにチェックしておくべき。\n"+
		"早く動いた人が勝つ時代。\n\n"+
		"%s #最新ニュース", truncateRunes(headline, 40), hashtag(kw))
}

func tipsTemplate(kw, _ string) string {
	return fmt.Sprintf("📌 %sについて、知っておくべき3つのこと\n\n"+
		"① トレンドが急速に変化している\n"+
		"② 早期参入者が圧倒的に有利\n"+
		"③ 情報収集のスピードが差を生む\n\n"+
		"「まだ早い」と思った時がチャンス。\n\n"+
		"%s #情報発信 #行動力", kw, hashtag(kw))
}

func questionTemplate(kw, _ string) string {
	return fmt.Sprintf("🤔 ぶっちゃけ「%s」ってどう思う？\n\n"+
		"最近めちゃくちゃ話題になってるけど、\n"+
		"実際に使ってみた人の感想が聞きたい。\n\n"+
		"良かった点・微妙だった点、\n"+
		"リプで教えてくれたら嬉しい🙏\n\n"+
		"%s #みんなの意見", kw, hashtag(kw))
}
