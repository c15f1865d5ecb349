package workflow

import (
	"errors"
	"fmt"

	"wisefido-careguard/internal/models"
)

// ErrCaseNotFound 案例不存在
var ErrCaseNotFound = errors.New("incident case not found")

// InvalidTransitionError 非法状态迁移
// 工作流是严格的，不是尽力而为：迁移被拒绝时案例保持原状
type InvalidTransitionError struct {
	CaseID string
	From   models.CaseState
	To     models.CaseState
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s -> %s for case %s: %s", e.From, e.To, e.CaseID, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s -> %s for case %s", e.From, e.To, e.CaseID)
}

// 状态迁移表：非法迁移在结构上不可表达
// open → documented → report_pending → reported → followup_scheduled → closed
// open → dismissed（吸收态）
// reported → closed 仅当不需要跟进（守卫条件在迁移方法中检查）
var transitionTable = map[models.CaseState][]models.CaseState{
	models.CaseOpen:              {models.CaseDocumented, models.CaseDismissed},
	models.CaseDocumented:        {models.CaseReportPending},
	models.CaseReportPending:     {models.CaseReported},
	models.CaseReported:          {models.CaseFollowupScheduled, models.CaseClosed},
	models.CaseFollowupScheduled: {models.CaseClosed},
}

func transitionAllowed(from, to models.CaseState) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}
