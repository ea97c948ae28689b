package scrape

import "strings"

// Inferred is a best-effort guess at what kind of site this is and what the
// banner should push the viewer toward. The prompt builder tells the model
// to trust actual page text over this on conflict.
type Inferred struct {
	Industry  string   `json:"industry"`
	Objective string   `json:"objective"`
	Target    string   `json:"target"`
	Evidence  []string `json:"evidence,omitempty"`
}

// industryRule maps keywords to an industry bucket. Rules are evaluated in
// order and the first match wins, so more specific buckets come first.
type industryRule struct {
	industry string
	target   string
	keywords []string
}

var industryRules = []industryRule{
	{"BtoB/SaaS", "業務課題を抱える企業の担当者・決裁者",
		[]string{"saas", "クラウド", "業務効率", "dx", "btob", "b2b", "導入事例", "api連携"}},
	{"EC/通販", "オンラインで買い物をする一般消費者",
		[]string{"通販", "カート", "送料無料", "ec", "ショッピング", "在庫", "セール"}},
	{"美容/サロン", "美容への関心が高い女性層",
		[]string{"美容", "サロン", "エステ", "脱毛", "ネイル", "ヘアケア", "スキンケア"}},
	{"医療/クリニック", "症状や健康に不安を持つ生活者",
		[]string{"クリニック", "医院", "診療", "治療", "外来", "歯科", "内科"}},
	{"不動産", "住まい探し中のファミリー・単身者",
		[]string{"不動産", "賃貸", "物件", "マンション", "戸建", "住宅ローン"}},
	{"教育/スクール", "学習・スキルアップを目指す個人",
		[]string{"スクール", "講座", "レッスン", "受講", "資格", "学習", "授業"}},
	{"飲食/グルメ", "外食先を探している生活者",
		[]string{"レストラン", "居酒屋", "メニュー", "グルメ", "ランチ", "テイクアウト", "予約はこちら"}},
	{"人材/採用", "転職・就職を考えている求職者",
		[]string{"求人", "採用", "転職", "エントリー", "中途", "新卒", "キャリア"}},
}

// objectiveRule maps keywords to the action a banner should drive. First
// match wins; stronger-intent actions are checked first.
type objectiveRule struct {
	objective string
	keywords  []string
}

var objectiveRules = []objectiveRule{
	{"資料DL", []string{"資料請求", "資料ダウンロード", "ホワイトペーパー", "お役立ち資料"}},
	{"購入", []string{"購入", "カートに入れる", "今すぐ買う", "注文"}},
	{"相談", []string{"無料相談", "カウンセリング", "無料体験", "見積もり"}},
	{"応募", []string{"応募", "エントリー", "お申し込み", "申し込む", "登録はこちら"}},
	{"問い合わせ", []string{"お問い合わせ", "お問合せ", "コンタクト", "contact"}},
}

// InferBannerInfo guesses industry, objective, and target audience from the
// URL, metadata, and page text by keyword matching. Fields stay empty when
// no rule matches; never fails.
func InferBannerInfo(pageURL string, meta Meta, text string) Inferred {
	haystack := strings.ToLower(pageURL + "\n" + meta.Title + "\n" + meta.Description + "\n" + text)

	var inferred Inferred

	for _, rule := range industryRules {
		if hits := matchKeywords(haystack, rule.keywords); len(hits) > 0 {
			inferred.Industry = rule.industry
			inferred.Target = rule.target
			inferred.Evidence = append(inferred.Evidence, hits...)
			break
		}
	}

	for _, rule := range objectiveRules {
		if hits := matchKeywords(haystack, rule.keywords); len(hits) > 0 {
			inferred.Objective = rule.objective
			inferred.Evidence = append(inferred.Evidence, hits...)
			break
		}
	}

	return inferred
}

func matchKeywords(haystack string, keywords []string) []string {
	var hits []string
	for _, kw := range keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			hits = append(hits, kw)
		}
	}
	return hits
}
