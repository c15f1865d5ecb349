package resolver

import (
	"strings"

	"wisefido-careguard/internal/models"
)

// 认知障碍相关的诊断标签（小写比较）
var cognitiveImpairmentTags = map[string]bool{
	"demenz":               true,
	"dementia":             true,
	"alzheimer":            true,
	"korsakow":             true,
	"kognitive einschränkung": true,
	"cognitive impairment": true,
}

// Resolver 上下文归因器
// 核心不变量（不对称规则）：认知背景可以软化 *言语* 分类，
// 但永远不软化 *暴力* 分类 —— EMERGENCY 命中从不归因为 dementia_context
type Resolver struct{}

// NewResolver 创建归因器
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve 对命中逐条归因
// 规则：
//   - HARMLESS 命中不需要归因判断，直接按上下文标记
//   - VULGAR/CRITICAL：住户有认知障碍诊断 且 定向力为
//     disoriented/partially_oriented → dementia_context，否则 targeted
//   - 诊断/定向力数据缺失 → undetermined（报警处理等同 targeted，
//     宁可多审查，绝不静默降级）
//   - 既往重复模式（is_repeat_pattern）阻止软化：同一住户反复出现
//     安全相关言语时不再归因为痴呆背景
//   - EMERGENCY：永远不归因为 dementia_context
func (r *Resolver) Resolve(matches []models.Match, ctx models.ResidentContext) []models.ResolvedMatch {
	resolved := make([]models.ResolvedMatch, 0, len(matches))
	for _, m := range matches {
		resolved = append(resolved, models.ResolvedMatch{
			Match:       m,
			Attribution: r.attribute(m, ctx),
		})
	}
	return resolved
}

func (r *Resolver) attribute(m models.Match, ctx models.ResidentContext) models.Attribution {
	if m.Category == models.CategoryEmergency {
		// 身体暴力不受认知状态影响，始终升级
		if contextUnknown(ctx) {
			return models.AttributionUndetermined
		}
		return models.AttributionTargeted
	}

	if contextUnknown(ctx) {
		return models.AttributionUndetermined
	}

	if ctx.IsRepeatPattern {
		// 既往重复模式：不再软化，按针对性处理
		return models.AttributionTargeted
	}

	if hasCognitiveImpairment(ctx) && orientationImpaired(ctx.Orientation) {
		return models.AttributionDementiaContext
	}
	return models.AttributionTargeted
}

// contextUnknown 诊断和定向力信息是否缺失
func contextUnknown(ctx models.ResidentContext) bool {
	return len(ctx.DiagnosisTags) == 0 &&
		(ctx.Orientation == "" || ctx.Orientation == models.OrientationUnknown)
}

func hasCognitiveImpairment(ctx models.ResidentContext) bool {
	for _, tag := range ctx.DiagnosisTags {
		if cognitiveImpairmentTags[strings.ToLower(strings.TrimSpace(tag))] {
			return true
		}
	}
	return false
}

func orientationImpaired(status models.OrientationStatus) bool {
	return status == models.OrientationDisoriented ||
		status == models.OrientationPartiallyOriented
}
