package promo

import (
	"context"
	"fmt"
	"strings"

	"github.com/buzzboard/internal/llm"
)

const maxHypeInput = 12000

// HypeAnalysis is the output of the first stage of the two-stage legacy
// generation path: a product summary plus a fixed cast of three personas
// that the second stage writes dialogue for.
type HypeAnalysis struct {
	ProductName  string        `json:"product_name"`
	KeyFeatures  string        `json:"key_features"`
	CastProfiles []CastProfile `json:"cast_profiles"`
}

type hypeTranscriptPayload struct {
	Transcript []looseTurn `json:"transcript"`
}

// HypeGenerator implements the original two-stage flow: analyze the page
// text and invent a cast, then generate a 10-15 turn conversation spoken by
// that cast. Turns come back in the legacy {speaker, content} shape and are
// normalized before anything touches them.
type HypeGenerator struct {
	client llm.Client
}

func NewHypeGenerator(client llm.Client) *HypeGenerator {
	return &HypeGenerator{client: client}
}

// Analyze runs stage one. Input text is truncated to keep the prompt within
// sensible bounds.
func (h *HypeGenerator) Analyze(ctx context.Context, inputText string) (HypeAnalysis, error) {
	runes := []rune(inputText)
	if len(runes) > maxHypeInput {
		inputText = string(runes[:maxHypeInput])
	}

	raw, err := h.client.GenerateJSON(ctx, llm.Request{
		Prompt:            hypeAnalysisPrompt(inputText),
		SystemInstruction: hypeSystemInstruction,
	})
	if err != nil {
		return HypeAnalysis{}, fmt.Errorf("cast analysis call failed: %w", err)
	}

	var analysis HypeAnalysis
	if err := llm.ParseModelJSON(raw, &analysis); err != nil {
		return HypeAnalysis{}, fmt.Errorf("cast analysis response unparsable: %w", err)
	}
	if analysis.ProductName == "" {
		return HypeAnalysis{}, fmt.Errorf("cast analysis returned no product name")
	}
	return analysis, nil
}

// Transcript runs stage two against the cast from Analyze.
func (h *HypeGenerator) Transcript(ctx context.Context, analysis HypeAnalysis) ([]TranscriptTurn, error) {
	raw, err := h.client.GenerateJSON(ctx, llm.Request{
		Prompt:            hypeTranscriptPrompt(analysis),
		SystemInstruction: hypeSystemInstruction,
	})
	if err != nil {
		return nil, fmt.Errorf("hype transcript call failed: %w", err)
	}

	var payload hypeTranscriptPayload
	if err := llm.ParseModelJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("hype transcript response unparsable: %w", err)
	}
	return normalizeTurns(payload.Transcript), nil
}

func hypeAnalysisPrompt(inputText string) string {
	return fmt.Sprintf(`以下の商品/ページ内容を分析し、JSONのみ出力せよ。

Input:
%s

Output a single JSON object with these exact keys:
- product_name: string (短い商品名)
- key_features: string (USP・訴求ポイントを箇条書き or 要約)
- cast_profiles: array of exactly 3 objects, each with:
  - name: string (5ch/X風ニックネーム。例: おでん、ガジェッター、主婦A)
  - role: string (ペルソナ種別)
  - short_description: string (1行で性格・視点を説明)

キャラ役割は多様に。全員ハイテンションNG。例:
- role: "冷静オタク" / 最初は疑ってるが最後は欲しくなる
- role: "金欠学生" / お金ないけど欲しい、悩んでる
- role: "様子見派" / 慎重に評価、口コミ見に来た

全員商品にポジティブだが、声色・テンションはバラバラに。`, inputText)
}

func hypeTranscriptPrompt(analysis HypeAnalysis) string {
	var cast strings.Builder
	for _, c := range analysis.CastProfiles {
		fmt.Fprintf(&cast, "- %s: %s — %s\n", c.Name, c.Role, c.ShortDescription)
	}

	return fmt.Sprintf(`この商品について、5ch/X風のリアルな会話（10〜15ターン）を生成せよ。

Product: %s
Key features (context): %s

Cast（speaker には以下の名前をそのまま使用）:
%s
【文体・必須】
- 敬語禁止。タメ口・ネットスラング。「マジか」「これ神」「ｗ」「（笑）」「！」適度に
- スペック説明・「〜なので便利」禁止。体験・感情のみ。短文中心
- Bad: 「セール中ですね！バッテリーが良いので最適です。」
- Good: 「うわ安くなってるマジか」「スタバでドヤるしかねえｗ」「この値段バグだろ...」

【ルール】
1. 全員ポジティブ。批判禁止
2. 最後に CTA: 「とりあえずポチった」「公式見てくるわ」「売り切れ前に急げ」など

Output a single JSON object:
- transcript: array of objects, each with: speaker (string), content (string), timestamp (string, e.g. "00:00", "00:01")
Output valid JSON only.`, analysis.ProductName, analysis.KeyFeatures, cast.String())
}
