// Package visual renders a page in a headless browser and derives its visual
// brand signals: dominant colors by area, computed-style colors of key
// elements, image composition, and a people-presence estimate. Every stage
// fails soft; a broken page yields an empty report, never an error.
package visual

import (
	"fmt"
	"strings"
)

// People-presence verdicts, shown verbatim in the prompt.
const (
	PeopleYes     = "あり"
	PeopleNo      = "なし"
	PeopleUnknown = "不明"
)

// Image-kind classifications.
const (
	ImageKindPhoto        = "写真中心"
	ImageKindIllustration = "イラスト・アイコン中心"
	ImageKindMixed        = "写真とイラストの混在"
)

// ColorRatio is one color and the share of the page area it covers.
type ColorRatio struct {
	Hex   string  `json:"hex"`
	Ratio float64 `json:"ratio"`
}

// Report is the per-request result of headless analysis. Consumed
// immediately by the prompt builder; cached per hostname, never persisted.
type Report struct {
	ViewportWidth  int
	ViewportHeight int

	// Colors is the trusted signal after reconciliation, ranked by area.
	Colors    []ColorRatio
	MainColor string
	SubColors []string

	ImageAreaRatio           float64
	BackgroundImageAreaRatio float64
	ImageKind                string
	PeopleVerdict            string

	// CandidateImages are the largest on-screen images, for dominant-color
	// extraction and people detection downstream.
	CandidateImages []string
}

// Palette returns main + sub colors as one ordered list, capped at 3
// entries like every other palette in the pipeline.
func (r *Report) Palette() []string {
	if r.MainColor == "" {
		return nil
	}
	p := append([]string{r.MainColor}, r.SubColors...)
	if len(p) > 3 {
		p = p[:3]
	}
	return p
}

// ColorSummary is a human-readable color description embedded in the prompt.
func (r *Report) ColorSummary() string {
	if r.MainColor == "" {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "メインカラー: %s", r.MainColor)
	if len(r.SubColors) > 0 {
		fmt.Fprintf(&b, " / サブカラー: %s", strings.Join(r.SubColors, ", "))
	}
	if len(r.Colors) > 0 {
		b.WriteString(" / 面積比: ")
		for i, c := range r.Colors {
			if i >= 5 {
				break
			}
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s %.0f%%", c.Hex, c.Ratio*100)
		}
	}
	return b.String()
}

// ImageSummary describes the page's image composition for the prompt.
func (r *Report) ImageSummary() string {
	if r.ImageKind == "" && r.ImageAreaRatio == 0 {
		return ""
	}
	var parts []string
	if r.ImageKind != "" {
		parts = append(parts, "画像の傾向: "+r.ImageKind)
	}
	parts = append(parts, fmt.Sprintf("画像面積比: %.0f%%", (r.ImageAreaRatio+r.BackgroundImageAreaRatio)*100))
	if r.PeopleVerdict != "" {
		parts = append(parts, "人物写真: "+r.PeopleVerdict)
	}
	return strings.Join(parts, " / ")
}
