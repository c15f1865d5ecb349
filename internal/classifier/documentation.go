package classifier

import (
	"strings"

	"wisefido-careguard/internal/models"
)

// 临床措辞模板（客观、去情绪化；文档语言为德语）

const (
	docEmergency = "Bewohner zeigte fremdaggressive Verhaltensweise während der Pflege. " +
		"Körperliche Gewaltanwendung beziehungsweise Bedrohung gegenüber Pflegekraft."
	docCritical = "Bewohner tätigte sexualisierte Äußerungen während der Körperpflege. " +
		"Pflegekraft fühlte sich belästigt."
	docVulgar = "Vorfall mit verbaler Aggression während der Pflege."
	docHarmlessMatched = "Verbale Äußerung ohne sicherheitsrelevanten Gehalt, " +
		"zur Verlaufsbeobachtung dokumentiert."
	docNone = "Keine sicherheitsrelevanten Äußerungen im Pflegebericht erkannt."

	// 紧急分类的措辞区分：临床框架 vs 责任框架
	docFramingClinical    = "Verhalten steht im Kontext der demenziellen Erkrankung."
	docFramingCulpability = "Bewohner war zum Zeitpunkt des Vorfalls orientiert und zurechnungsfähig."
	docFramingUnresolved  = "Kognitiver Status zum Zeitpunkt des Vorfalls nicht dokumentiert."

	docDementiaContext = "Äußerung steht im Kontext der demenziellen Erkrankung."
	docLowConfidence   = "Spracherkennung mit eingeschränkter Konfidenz (unbekanntes Sprachkürzel)."
)

// buildDocumentation 选择分类对应的临床措辞模板
// EMERGENCY 的暴力分类不会被认知背景降级，但措辞会区分
// 临床框架和责任框架（不对称规则只约束分类，不约束措辞）
func buildDocumentation(result models.ClassificationResult, ctx models.ResidentContext) string {
	var parts []string

	switch result.OverallCategory {
	case models.CategoryEmergency:
		parts = append(parts, docEmergency)
		parts = append(parts, emergencyFraming(ctx))
	case models.CategoryCritical:
		parts = append(parts, docCritical)
		if result.MaxAttribution() == models.AttributionDementiaContext {
			parts = append(parts, docDementiaContext)
		}
	case models.CategoryVulgar:
		parts = append(parts, docVulgar)
		if result.MaxAttribution() == models.AttributionDementiaContext {
			parts = append(parts, docDementiaContext)
		}
	default:
		if len(result.Matches) > 0 {
			parts = append(parts, docHarmlessMatched)
		} else {
			parts = append(parts, docNone)
		}
	}

	if !result.LanguageKnown {
		parts = append(parts, docLowConfidence)
	}

	return strings.Join(parts, " ")
}

func emergencyFraming(ctx models.ResidentContext) string {
	impaired := hasCognitiveTag(ctx) &&
		(ctx.Orientation == models.OrientationDisoriented ||
			ctx.Orientation == models.OrientationPartiallyOriented)
	switch {
	case impaired:
		return docFramingClinical
	case ctx.Orientation == models.OrientationOriented:
		return docFramingCulpability
	default:
		return docFramingUnresolved
	}
}

func hasCognitiveTag(ctx models.ResidentContext) bool {
	for _, tag := range ctx.DiagnosisTags {
		switch strings.ToLower(strings.TrimSpace(tag)) {
		case "demenz", "dementia", "alzheimer", "korsakow",
			"kognitive einschränkung", "cognitive impairment":
			return true
		}
	}
	return false
}

// buildRecommendedActions 为可上报案例生成支持选项
// 全部为建议，由人工决定执行 —— 引擎从不自动执行任何一项
func buildRecommendedActions(result models.ClassificationResult) []string {
	if !result.OverallCategory.Reportable() {
		return nil
	}

	var actions []string
	if result.OverallCategory == models.CategoryEmergency {
		actions = append(actions,
			"Durchgangsarzt-Termin vereinbaren",
			"Psychologische Erstberatung (EAP)",
			"Rechtliche Beratung durch Träger",
		)
	}
	if result.OverallCategory == models.CategoryCritical {
		actions = append(actions,
			"Vertrauliche Beratung (Vertrauensperson)",
			"Pflegeplanung anpassen (andere Pflegekraft)",
		)
	}
	actions = append(actions,
		"Foto-Dokumentation von Verletzungen",
		"Zeugenaussage einholen",
		"Follow-Up-Gespräch in 24h",
	)
	return actions
}
