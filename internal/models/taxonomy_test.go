package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_Ordering(t *testing.T) {
	assert.True(t, CategoryHarmless < CategoryVulgar)
	assert.True(t, CategoryVulgar < CategoryCritical)
	assert.True(t, CategoryCritical < CategoryEmergency)
}

func TestCategory_Reportable(t *testing.T) {
	assert.False(t, CategoryHarmless.Reportable())
	assert.False(t, CategoryVulgar.Reportable())
	assert.True(t, CategoryCritical.Reportable())
	assert.True(t, CategoryEmergency.Reportable())
}

func TestCategory_AlarmLevel(t *testing.T) {
	assert.Equal(t, "NONE", CategoryHarmless.AlarmLevel())
	assert.Equal(t, "INFO", CategoryVulgar.AlarmLevel())
	assert.Equal(t, "CRITICAL", CategoryCritical.AlarmLevel())
	assert.Equal(t, "EMERGENCY", CategoryEmergency.AlarmLevel())
}

func TestMaxAttribution_Priority(t *testing.T) {
	// targeted > undetermined > dementia_context（同一最高分类内）
	result := ClassificationResult{
		OverallCategory: CategoryCritical,
		Matches: []ResolvedMatch{
			{Match: Match{Category: CategoryCritical}, Attribution: AttributionDementiaContext},
			{Match: Match{Category: CategoryCritical}, Attribution: AttributionTargeted},
		},
	}
	assert.Equal(t, AttributionTargeted, result.MaxAttribution())

	result.Matches[1].Attribution = AttributionUndetermined
	assert.Equal(t, AttributionUndetermined, result.MaxAttribution())

	result.Matches[1].Attribution = AttributionDementiaContext
	assert.Equal(t, AttributionDementiaContext, result.MaxAttribution())
}

func TestMaxAttribution_IgnoresLowerCategoryMatches(t *testing.T) {
	// 低于整体分类的命中不参与归因判断
	result := ClassificationResult{
		OverallCategory: CategoryCritical,
		Matches: []ResolvedMatch{
			{Match: Match{Category: CategoryHarmless}, Attribution: AttributionTargeted},
			{Match: Match{Category: CategoryCritical}, Attribution: AttributionDementiaContext},
		},
	}
	assert.Equal(t, AttributionDementiaContext, result.MaxAttribution())
}

func TestMaxAttribution_EmptyIsUndetermined(t *testing.T) {
	result := ClassificationResult{OverallCategory: CategoryHarmless}
	assert.Equal(t, AttributionUndetermined, result.MaxAttribution())
}

func TestCaseState_Terminal(t *testing.T) {
	assert.True(t, CaseClosed.Terminal())
	assert.True(t, CaseDismissed.Terminal())
	assert.False(t, CaseOpen.Terminal())
	assert.False(t, CaseFollowupScheduled.Terminal())
}

func TestIncidentCase_FollowupRequired(t *testing.T) {
	c := &IncidentCase{}
	assert.False(t, c.FollowupRequired())

	c.PhysicalInjuryFlag = true
	assert.True(t, c.FollowupRequired())

	c = &IncidentCase{
		Classification: &ClassificationResult{OverallCategory: CategoryEmergency},
	}
	assert.True(t, c.FollowupRequired())

	c.Classification.OverallCategory = CategoryCritical
	assert.False(t, c.FollowupRequired())
}
