package trend

import "github.com/unclebandit/autobuzz-backend/internal/model"

// Fallback lists used when a source is unconfigured or unreachable.

func mockGoogleTrends() []model.TrendItem {
	titles := []string{"AI エージェント", "生成AI 最新", "ChatGPT 新機能", "副業 2026", "プログラミング 独学"}
	items := make([]model.TrendItem, len(titles))
	for i, title := range titles {
		items[i] = model.TrendItem{
			Source:      model.SourceGoogleTrends,
			Title:       title,
			Description: "Google Trendsで急上昇中: " + title,
			Score:       float64(10 - i),
		}
	}
	return items
}

func mockNews() []model.TrendItem {
	return []model.TrendItem{
		{Source: model.SourceNews, Title: "AI技術の最新動向：2026年の注目ポイント", Description: "人工知能技術が急速に進化し、さまざまな産業に影響を与え始めている。", Score: 1, Category: "IT"},
		{Source: model.SourceNews, Title: "SNS収益化の新トレンド", Description: "個人のSNS発信から収益を上げる新しい方法が注目されている。", Score: 1, Category: "ビジネス"},
		{Source: model.SourceNews, Title: "リモートワーク最新事情", Description: "働き方改革が進み、リモートワークの形態がさらに多様化している。", Score: 1, Category: "ビジネス"},
	}
}

func mockBuzzPosts() []model.TrendItem {
	return []model.TrendItem{
		{Source: model.SourceX, Title: "【話題】AIの使い方を変えるツールが登場", Description: "【話題】AIの使い方を変えるツールが登場！これは本当にすごい。仕事が3倍速になった #AI #効率化 #テック", Score: 150},
		{Source: model.SourceX, Title: "今日バズってる投稿からわかること", Description: "今日バズってる投稿からわかること：結局、共感×具体性×タイミングが全て。#マーケティング #SNS運用", Score: 120},
		{Source: model.SourceX, Title: "副業で月10万稼ぐリアルな方法", Description: "副業で月10万稼ぐリアルな方法をまとめました。実際にやってみた結果を公開 #副業 #収入UP", Score: 100},
	}
}
