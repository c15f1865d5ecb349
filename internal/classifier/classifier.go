package classifier

import (
	"wisefido-careguard/internal/models"
)

// 接触类暴力动词：命中即把 PhysicalInjuryCandidate 置为 true
// （区别于威胁类表达 —— 威胁同为 EMERGENCY，但没有身体接触）
var contactVerbs = map[string]bool{
	// de
	"geschlagen": true, "getreten": true, "gebissen": true,
	"gekratzt": true, "gewürgt": true, "gestoßen": true,
	"gespuckt": true, "geboxt": true,
	// en
	"struck": true, "bit": true, "kicked": true, "strangled": true,
	"scratched": true, "pushed": true, "spat": true, "punched": true,
	// tr
	"vurdu": true, "tekmeledi": true, "ısırdı": true,
	"tırmaladı": true, "boğdu": true, "itti": true, "tükürdü": true,
	// pl
	"uderzył": true, "kopnął": true, "ugryzł": true,
	"podrapał": true, "dusił": true, "popchnął": true, "opluł": true,
	// ar（拉丁转写）
	"darab": true, "rafas": true, "kharmash": true,
	"khanaq": true, "dafaa": true,
	// fr
	"frappé": true, "battu": true, "mordu": true, "griffé": true,
	"étranglé": true, "poussé": true, "craché": true,
	// es
	"golpeó": true, "pateó": true, "mordió": true, "arañó": true,
	"estranguló": true, "empujó": true, "escupió": true,
}

// Classifier 严重度分类器 + 文档生成器
// 纯函数：不做 I/O，不持久化，同输入必得同输出
type Classifier struct{}

// NewClassifier 创建分类器
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify 把归因后的命中折叠为分类结果
// overall = 所有命中分类的最大值（无命中 → HARMLESS）
// NeutralDocumentation 只来自模板，永远不包含触发词原文 ——
// 原始叙述由调用方单独保存（检测不等于审查）
func (c *Classifier) Classify(resolved []models.ResolvedMatch, ctx models.ResidentContext, languageKnown bool) models.ClassificationResult {
	overall := models.CategoryHarmless
	injury := false
	for _, rm := range resolved {
		if rm.Match.Category > overall {
			overall = rm.Match.Category
		}
		if rm.Match.Category == models.CategoryEmergency && contactVerbs[rm.Match.Term] {
			injury = true
		}
	}

	result := models.ClassificationResult{
		OverallCategory:         overall,
		Matches:                 resolved,
		PhysicalInjuryCandidate: injury,
		LanguageKnown:           languageKnown,
	}
	result.NeutralDocumentation = buildDocumentation(result, ctx)
	result.RecommendedActions = buildRecommendedActions(result)
	return result
}
