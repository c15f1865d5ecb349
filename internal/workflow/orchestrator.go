package workflow

import (
	"fmt"
	"sync"
	"time"

	"wisefido-careguard/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertSink 外部通知协作方接口
// 编排器只决定发什么（that and what），发送本身由外部执行
type AlertSink interface {
	Emit(event models.AlertEvent) error
}

// Orchestrator 事件案例工作流编排器
// 独占持有 IncidentCase 可变状态；同一案例的迁移串行化
// （按 case_id 加锁），不同案例完全并行
type Orchestrator struct {
	tenantID      string
	sink          AlertSink
	followupDelay time.Duration
	logger        *zap.Logger

	mu    sync.Mutex // 保护 cases/locks 两张表
	cases map[string]*models.IncidentCase
	locks map[string]*sync.Mutex
}

// NewOrchestrator 创建编排器
func NewOrchestrator(tenantID string, sink AlertSink, followupDelay time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		tenantID:      tenantID,
		sink:          sink,
		followupDelay: followupDelay,
		logger:        logger,
		cases:         make(map[string]*models.IncidentCase),
		locks:         make(map[string]*sync.Mutex),
	}
}

// ============================================
// 案例创建
// ============================================

// Intake 接收分类结果
// 业务规则：
//   - overall_category 为 CRITICAL/EMERGENCY 才创建案例，其余返回 nil
//   - 符合驳回提议条件的案例（痴呆归因的 CRITICAL 且无身体伤害）
//     停留在 open 等待审核人决定；引擎只提议，关闭由人执行
//   - 其余案例自动完成 open → documented；EMERGENCY 继续自动
//     documented → report_pending
func (o *Orchestrator) Intake(residentID string, result models.ClassificationResult) (*models.IncidentCase, error) {
	if !result.OverallCategory.Reportable() {
		return nil, nil
	}

	now := time.Now()
	classification := result
	c := &models.IncidentCase{
		CaseID:             uuid.New().String(),
		TenantID:           o.tenantID,
		ResidentID:         residentID,
		Classification:     &classification,
		State:              models.CaseOpen,
		Level:              result.OverallCategory.AlarmLevel(),
		CreatedAt:          now,
		UpdatedAt:          now,
		PhysicalInjuryFlag: result.PhysicalInjuryCandidate,
		DismissalProposed:  dismissalQualified(result),
	}

	o.register(c)
	o.emit(c, "case_opened")

	o.logger.Info("Incident case created",
		zap.String("case_id", c.CaseID),
		zap.String("resident_id", residentID),
		zap.String("category", result.OverallCategory.String()),
		zap.Bool("dismissal_proposed", c.DismissalProposed),
	)

	if c.DismissalProposed {
		return o.snapshot(c.CaseID)
	}
	if err := o.Document(c.CaseID); err != nil {
		return nil, err
	}
	return o.snapshot(c.CaseID)
}

// IntakeAnomaly 接收异常检测报警，走同一案例生命周期
// INFO 级报警只通知不开案；WARNING/HIGH 开案
func (o *Orchestrator) IntakeAnomaly(alert models.AnomalyAlert) (*models.IncidentCase, error) {
	event := models.AlertEvent{
		EventID:    uuid.New().String(),
		TenantID:   o.tenantID,
		AlertID:    alert.AlertID,
		ResidentID: alert.ResidentID,
		Level:      string(alert.Severity),
		Transition: "anomaly_detected",
		EmittedAt:  time.Now(),
	}
	if err := o.sink.Emit(event); err != nil {
		o.logger.Error("Failed to emit anomaly alert event",
			zap.String("alert_id", alert.AlertID),
			zap.Error(err),
		)
	}

	if alert.Severity == models.SeverityInfo {
		return nil, nil
	}

	now := time.Now()
	c := &models.IncidentCase{
		CaseID:        uuid.New().String(),
		TenantID:      o.tenantID,
		ResidentID:    alert.ResidentID,
		State:         models.CaseOpen,
		Level:         string(alert.Severity),
		CreatedAt:     now,
		UpdatedAt:     now,
		SourceAlertID: alert.AlertID,
	}
	o.register(c)
	o.emit(c, "case_opened")

	o.logger.Info("Incident case created from anomaly alert",
		zap.String("case_id", c.CaseID),
		zap.String("alert_id", alert.AlertID),
		zap.String("metric", string(alert.Metric)),
		zap.String("severity", string(alert.Severity)),
	)

	if err := o.Document(c.CaseID); err != nil {
		return nil, err
	}
	return o.snapshot(c.CaseID)
}

// Restore 将持久化案例重新纳入编排器管理
// 进程重启后，存量案例的迁移指令到达时按需恢复
// 业务规则：
//   - 已跟踪的案例为幂等空操作
//   - 编排器持有自己的副本，调用方后续修改不影响内部状态
func (o *Orchestrator) Restore(c *models.IncidentCase) error {
	if c == nil || c.CaseID == "" {
		return fmt.Errorf("case_id is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.cases[c.CaseID]; ok {
		return nil
	}

	copied := *c
	copied.Witnesses = append([]string(nil), c.Witnesses...)
	if c.FollowupDueAt != nil {
		due := *c.FollowupDueAt
		copied.FollowupDueAt = &due
	}
	if c.Classification != nil {
		classification := *c.Classification
		copied.Classification = &classification
	}
	o.cases[c.CaseID] = &copied
	o.locks[c.CaseID] = &sync.Mutex{}

	o.logger.Info("Incident case restored",
		zap.String("case_id", c.CaseID),
		zap.String("state", string(c.State)),
	)
	return nil
}

// ============================================
// 状态迁移
// ============================================

// Document 附加中性文档，open → documented
// EMERGENCY 案例随后自动进入 report_pending
func (o *Orchestrator) Document(caseID string) error {
	var autoReport bool
	err := o.withCase(caseID, func(c *models.IncidentCase) error {
		if err := o.transition(c, models.CaseDocumented, ""); err != nil {
			return err
		}
		c.DismissalProposed = false
		autoReport = c.Classification != nil &&
			c.Classification.OverallCategory == models.CategoryEmergency
		return nil
	})
	if err != nil {
		return err
	}
	if autoReport {
		return o.RequestReport(caseID)
	}
	return nil
}

// RequestReport documented → report_pending
// EMERGENCY 自动到达；CRITICAL 需要调用方确认（PDL 通知提示已接受）
func (o *Orchestrator) RequestReport(caseID string) error {
	return o.withCase(caseID, func(c *models.IncidentCase) error {
		return o.transition(c, models.CaseReportPending, "")
	})
}

// MarkReported report_pending → reported
// 调用方提供证人名单并确认监管/管理层通知已发出
// 需要跟进的案例（EMERGENCY 或身体伤害）自动进入 followup_scheduled，
// followup_due_at = created_at + 配置的延迟（默认 24h）
func (o *Orchestrator) MarkReported(caseID string, witnesses []string) error {
	return o.withCase(caseID, func(c *models.IncidentCase) error {
		if err := o.transition(c, models.CaseReported, ""); err != nil {
			return err
		}
		c.Witnesses = append([]string(nil), witnesses...)

		if c.FollowupRequired() {
			if err := o.transition(c, models.CaseFollowupScheduled, ""); err != nil {
				return err
			}
			due := c.CreatedAt.Add(o.followupDelay)
			c.FollowupDueAt = &due
		}
		return nil
	})
}

// Close 关闭案例
// followup_scheduled → closed：调用方确认跟进谈话已完成
// reported → closed：仅当案例不需要跟进
func (o *Orchestrator) Close(caseID string) error {
	return o.withCase(caseID, func(c *models.IncidentCase) error {
		if c.State == models.CaseReported && c.FollowupRequired() {
			return &InvalidTransitionError{
				CaseID: caseID,
				From:   c.State,
				To:     models.CaseClosed,
				Reason: "follow-up must be scheduled before closing",
			}
		}
		return o.transition(c, models.CaseClosed, "")
	})
}

// Dismiss open → dismissed
// 仅对被提议驳回的案例可用，且必须由具名审核人显式确认
func (o *Orchestrator) Dismiss(caseID, reviewer string) error {
	return o.withCase(caseID, func(c *models.IncidentCase) error {
		if reviewer == "" {
			return &InvalidTransitionError{
				CaseID: caseID,
				From:   c.State,
				To:     models.CaseDismissed,
				Reason: "reviewer confirmation is required",
			}
		}
		if !c.DismissalProposed {
			return &InvalidTransitionError{
				CaseID: caseID,
				From:   c.State,
				To:     models.CaseDismissed,
				Reason: "case is not proposed for dismissal",
			}
		}
		if err := o.transition(c, models.CaseDismissed, ""); err != nil {
			return err
		}
		c.DismissedBy = reviewer
		return nil
	})
}

// ============================================
// 查询
// ============================================

// Case 获取案例快照（副本，外部修改不影响内部状态）
func (o *Orchestrator) Case(caseID string) (*models.IncidentCase, error) {
	return o.snapshot(caseID)
}

// ============================================
// 内部实现
// ============================================

// transition 执行一次状态迁移并发出 AlertEvent
// 前置条件：调用方已持有该案例的锁
func (o *Orchestrator) transition(c *models.IncidentCase, to models.CaseState, reason string) error {
	if c.State.Terminal() {
		return &InvalidTransitionError{
			CaseID: c.CaseID, From: c.State, To: to,
			Reason: "case is archived",
		}
	}
	if !transitionAllowed(c.State, to) {
		return &InvalidTransitionError{CaseID: c.CaseID, From: c.State, To: to, Reason: reason}
	}

	from := c.State
	c.State = to
	c.UpdatedAt = time.Now()
	o.emit(c, string(from)+"->"+string(to))

	o.logger.Info("Incident case transitioned",
		zap.String("case_id", c.CaseID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

// emit 向通知协作方发出事件；发送失败只记录，不回滚迁移
func (o *Orchestrator) emit(c *models.IncidentCase, transition string) {
	event := models.AlertEvent{
		EventID:    uuid.New().String(),
		TenantID:   o.tenantID,
		CaseID:     c.CaseID,
		AlertID:    c.SourceAlertID,
		ResidentID: c.ResidentID,
		Level:      c.Level,
		Transition: transition,
		EmittedAt:  time.Now(),
	}
	if c.Classification != nil {
		event.RecommendedActions = c.Classification.RecommendedActions
	}
	if err := o.sink.Emit(event); err != nil {
		o.logger.Error("Failed to emit alert event",
			zap.String("case_id", c.CaseID),
			zap.String("transition", transition),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) register(c *models.IncidentCase) {
	o.mu.Lock()
	o.cases[c.CaseID] = c
	o.locks[c.CaseID] = &sync.Mutex{}
	o.mu.Unlock()
}

// withCase 对单个案例执行串行化操作（single-writer-per-case）
func (o *Orchestrator) withCase(caseID string, fn func(c *models.IncidentCase) error) error {
	o.mu.Lock()
	c, ok := o.cases[caseID]
	lock := o.locks[caseID]
	o.mu.Unlock()
	if !ok {
		return ErrCaseNotFound
	}

	lock.Lock()
	defer lock.Unlock()
	return fn(c)
}

func (o *Orchestrator) snapshot(caseID string) (*models.IncidentCase, error) {
	o.mu.Lock()
	c, ok := o.cases[caseID]
	lock := o.locks[caseID]
	o.mu.Unlock()
	if !ok {
		return nil, ErrCaseNotFound
	}

	lock.Lock()
	defer lock.Unlock()
	copied := *c
	copied.Witnesses = append([]string(nil), c.Witnesses...)
	if c.FollowupDueAt != nil {
		due := *c.FollowupDueAt
		copied.FollowupDueAt = &due
	}
	return &copied, nil
}

// dismissalQualified 是否符合驳回提议条件：
// 痴呆归因的 CRITICAL，且无身体伤害候选
func dismissalQualified(result models.ClassificationResult) bool {
	return result.OverallCategory == models.CategoryCritical &&
		result.MaxAttribution() == models.AttributionDementiaContext &&
		!result.PhysicalInjuryCandidate
}
