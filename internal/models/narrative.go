package models

// Match 触发词命中记录（不可变）
// Start/End 为归一化文本中的 rune 偏移
type Match struct {
	Term     string       `json:"term"`
	Category Category     `json:"category"`
	Language LanguageCode `json:"language"`
	Start    int          `json:"start"`
	End      int          `json:"end"`
}

// ResolvedMatch 归因后的命中记录
type ResolvedMatch struct {
	Match       Match       `json:"match"`
	Attribution Attribution `json:"attribution"`
}

// ResidentContext 住户上下文（调用方每次提供，引擎不持久化）
type ResidentContext struct {
	DiagnosisTags   []string          `json:"diagnosis_tags"`
	Orientation     OrientationStatus `json:"orientation_status"`
	IsRepeatPattern bool              `json:"is_repeat_pattern"`
}

// HasDiagnosis 检查是否包含指定诊断标签（大小写不敏感由调用方保证）
func (c ResidentContext) HasDiagnosis(tag string) bool {
	for _, t := range c.DiagnosisTags {
		if t == tag {
			return true
		}
	}
	return false
}

// ClassificationResult 分类结果（每条叙述生成一次，创建后不可变）
// 原始叙述文本与生成的临床记录严格分离：
// NeutralDocumentation 永远不包含触发词原文
type ClassificationResult struct {
	OverallCategory         Category        `json:"overall_category"`
	Matches                 []ResolvedMatch `json:"matches"`
	NeutralDocumentation    string          `json:"neutral_documentation"`
	PhysicalInjuryCandidate bool            `json:"physical_injury_candidate"`
	LanguageKnown           bool            `json:"language_known"` // false = 未知语言回退到通用词表
	RecommendedActions      []string        `json:"recommended_actions"`
}

// MaxAttribution 结果中最严重命中的归因（用于工作流判断）
// 优先级：targeted > undetermined > dementia_context
func (r ClassificationResult) MaxAttribution() Attribution {
	attribution := AttributionDementiaContext
	found := false
	for _, m := range r.Matches {
		if m.Match.Category != r.OverallCategory {
			continue
		}
		found = true
		switch m.Attribution {
		case AttributionTargeted:
			return AttributionTargeted
		case AttributionUndetermined:
			attribution = AttributionUndetermined
		}
	}
	if !found {
		return AttributionUndetermined
	}
	return attribution
}
