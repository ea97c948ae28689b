// Package prompt assembles the Japanese instruction sent to the text model.
// Pure string templating: deterministic given its inputs and unable to fail.
// Malformed upstream signals degrade the prompt's quality, never its
// well-formedness.
package prompt

import (
	"fmt"
	"strings"

	"github.com/doya-app/banner-api/internal/scrape"
)

// Input truncation bounds keep the total prompt size predictable.
const (
	maxColorHintsLen  = 800
	maxVisualHintsLen = 1400
	maxPageTextLen    = 18000
)

// Input carries every signal the pipeline gathered for one banner request.
type Input struct {
	TargetURL string
	Size      string
	Language  string

	HasLogo        bool
	PersonImages   int
	BrandColors    []string
	ToneKeywords   string
	AvoidText      string
	MustInclude    string
	Industry       string // user-specified, overrides inference
	Purpose        string // user-specified, overrides inference

	Meta     scrape.Meta
	Inferred scrape.Inferred

	ColorHints  string
	VisualHints string
	PageText    string
}

// Build renders the full instruction. The model is walked through a fixed
// 5-step procedure and required to answer with a strict two-key JSON object.
func Build(in Input) string {
	var b strings.Builder

	b.WriteString("あなたは日本のWeb広告バナーを専門とするアートディレクター兼コピーライターです。\n")
	b.WriteString("以下のWebサイト情報を分析し、バナー画像を生成するための英語の画像生成プロンプトを作成してください。\n\n")

	b.WriteString("## 対象サイト\n")
	fmt.Fprintf(&b, "- URL: %s\n", in.TargetURL)
	fmt.Fprintf(&b, "- バナーサイズ: %s\n", in.Size)
	lang := in.Language
	if lang == "" {
		lang = "ja"
	}
	fmt.Fprintf(&b, "- コピーの言語: %s\n", lang)
	if in.HasLogo {
		b.WriteString("- ロゴ画像: あり（バナー内に配置すること）\n")
	}
	if in.PersonImages > 0 {
		fmt.Fprintf(&b, "- 人物素材: %d点（自然に配置すること）\n", in.PersonImages)
	}
	if len(in.BrandColors) > 0 {
		fmt.Fprintf(&b, "- 指定ブランドカラー: %s\n", strings.Join(in.BrandColors, ", "))
	}
	if in.ToneKeywords != "" {
		fmt.Fprintf(&b, "- トーン指定: %s\n", in.ToneKeywords)
	}
	if in.AvoidText != "" {
		fmt.Fprintf(&b, "- 使用禁止表現: %s\n", in.AvoidText)
	}
	if in.MustInclude != "" {
		fmt.Fprintf(&b, "- 必須記載事項: %s\n", in.MustInclude)
	}
	b.WriteString("\n")

	b.WriteString("## ページ情報\n")
	if in.Meta.Title != "" {
		fmt.Fprintf(&b, "- タイトル: %s\n", in.Meta.Title)
	}
	if in.Meta.Description != "" {
		fmt.Fprintf(&b, "- 説明文: %s\n", in.Meta.Description)
	}
	if hints := truncateRunes(in.ColorHints, maxColorHintsLen); hints != "" {
		fmt.Fprintf(&b, "- 配色の手がかり: %s\n", hints)
	}
	if hints := truncateRunes(in.VisualHints, maxVisualHintsLen); hints != "" {
		fmt.Fprintf(&b, "- ビジュアル分析: %s\n", hints)
	}
	b.WriteString("\n")

	industry := in.Industry
	if industry == "" {
		industry = in.Inferred.Industry
	}
	purpose := in.Purpose
	if purpose == "" {
		purpose = in.Inferred.Objective
	}
	if industry != "" || purpose != "" || in.Inferred.Target != "" {
		b.WriteString("## 推定情報（本文と矛盾する場合は本文を優先すること）\n")
		if industry != "" {
			fmt.Fprintf(&b, "- 業種: %s\n", industry)
		}
		if purpose != "" {
			fmt.Fprintf(&b, "- バナーの目的: %s\n", purpose)
		}
		if in.Inferred.Target != "" {
			fmt.Fprintf(&b, "- 想定ターゲット: %s\n", in.Inferred.Target)
		}
		if len(in.Inferred.Evidence) > 0 {
			fmt.Fprintf(&b, "- 根拠キーワード: %s\n", strings.Join(in.Inferred.Evidence, ", "))
		}
		b.WriteString("\n")
	}

	if text := truncateRunes(in.PageText, maxPageTextLen); text != "" {
		b.WriteString("## ページ本文（抜粋）\n")
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	b.WriteString(`## 作業手順（内部で順番に実行すること）
1. サイトの事業内容・強み・ターゲットを本文から正確に理解する
2. 以下の勝ちパターンから最も適切なものを1つ選ぶ
   - ベネフィット直球型（得られる未来を言い切る）
   - 数字・実績型（導入社数、満足度、価格などの具体数字）
   - 共感・課題提起型（ターゲットの悩みに寄り添う問いかけ）
   - 限定・緊急型（期間・数量限定で行動を促す）
   - 権威・信頼型（受賞歴、専門家推薦、メディア掲載）
3. 選んだパターンで短い日本語の広告コピー（メインコピー15字以内、サブコピー25字以内、CTAボタン文言）を作る
4. バナーとしての可読性ルールを適用する（文字は大きく、コントラスト確保、余白を活かす、要素は3つ以内）
5. 以上をすべて反映した完成済みの画像生成プロンプトを英語で1つにまとめる

## 出力形式
必ず次の2キーのみを持つJSONオブジェクトだけを返してください。説明文やコードフェンスは不要です。
{
  "analysis": "サイト分析とコピー選定理由の要約（日本語）",
  "image_generation_prompt": "完成した画像生成プロンプト（英語、コピー文言は日本語のまま埋め込む）"
}
`)

	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
