package models

import (
	"time"
)

// CaseState 事件案例工作流状态
type CaseState string

const (
	CaseOpen              CaseState = "open"
	CaseDocumented        CaseState = "documented"
	CaseReportPending     CaseState = "report_pending"
	CaseReported          CaseState = "reported"
	CaseFollowupScheduled CaseState = "followup_scheduled"
	CaseClosed            CaseState = "closed"
	CaseDismissed         CaseState = "dismissed" // 吸收态，仅从 open 可达
)

// Terminal 是否为终态（终态案例归档，只读）
func (s CaseState) Terminal() bool {
	return s == CaseClosed || s == CaseDismissed
}

// IncidentCase 事件案例（可变工作流实体，由编排器独占持有）
// 生命周期：open → documented → report_pending → reported →
// followup_scheduled → closed；open → dismissed
type IncidentCase struct {
	CaseID         string                `json:"case_id"`
	TenantID       string                `json:"tenant_id"`
	ResidentID     string                `json:"resident_id"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	State          CaseState             `json:"state"`
	Level          string                `json:"level"` // NONE, INFO, WARNING, CRITICAL, EMERGENCY, HIGH

	CreatedAt          time.Time  `json:"created_at"`
	FollowupDueAt      *time.Time `json:"followup_due_at,omitempty"`
	Witnesses          []string   `json:"witnesses"`
	PhysicalInjuryFlag bool       `json:"physical_injury_flag"`
	DismissalProposed  bool       `json:"dismissal_proposed"`
	DismissedBy        string     `json:"dismissed_by,omitempty"`
	SourceAlertID      string     `json:"source_alert_id,omitempty"` // 异常检测产生的案例
	UpdatedAt          time.Time  `json:"updated_at"`
}

// FollowupRequired 是否必须安排 24h 跟进（EMERGENCY 或有身体伤害）
func (c *IncidentCase) FollowupRequired() bool {
	if c.PhysicalInjuryFlag {
		return true
	}
	return c.Classification != nil && c.Classification.OverallCategory == CategoryEmergency
}

// AlertEvent 发给外部通知协作方的事件
// 编排器只决定发什么，不执行发送
type AlertEvent struct {
	EventID            string    `json:"event_id"`
	TenantID           string    `json:"tenant_id"`
	CaseID             string    `json:"case_id,omitempty"`
	AlertID            string    `json:"alert_id,omitempty"`
	ResidentID         string    `json:"resident_id"`
	Level              string    `json:"level"` // NONE, INFO, WARNING, CRITICAL, EMERGENCY
	Transition         string    `json:"transition"`
	RecommendedActions []string  `json:"recommended_actions"`
	EmittedAt          time.Time `json:"emitted_at"`
}
