package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wisefido-careguard/internal/models"

	"go.uber.org/zap"
)

// IncidentCaseRepository 事件案例仓库（对应 incident_cases 表）
// 持久化由本层负责；工作流状态机本身不做 I/O
type IncidentCaseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewIncidentCaseRepository 创建事件案例仓库
func NewIncidentCaseRepository(db *sql.DB, logger *zap.Logger) *IncidentCaseRepository {
	return &IncidentCaseRepository{
		db:     db,
		logger: logger,
	}
}

// CreateIncidentCase 写入新案例
// 业务规则：
//   - tenant_id 必填且与 case.TenantID 一致
//   - case_id 必须已生成（由编排器生成）
func (r *IncidentCaseRepository) CreateIncidentCase(ctx context.Context, tenantID string, c *models.IncidentCase) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if c == nil {
		return fmt.Errorf("case is required")
	}
	if c.TenantID != tenantID {
		return fmt.Errorf("case tenant_id (%s) does not match provided tenant_id (%s)", c.TenantID, tenantID)
	}
	if c.CaseID == "" {
		return fmt.Errorf("case_id is required (should be generated by orchestrator)")
	}

	classificationJSON := []byte("null")
	if c.Classification != nil {
		data, err := json.Marshal(c.Classification)
		if err != nil {
			return fmt.Errorf("failed to marshal classification: %w", err)
		}
		classificationJSON = data
	}
	witnessesJSON, err := json.Marshal(c.Witnesses)
	if err != nil {
		return fmt.Errorf("failed to marshal witnesses: %w", err)
	}

	query := `
		INSERT INTO incident_cases (
			case_id, tenant_id, resident_id, state, level,
			classification, physical_injury, dismissal_proposed,
			dismissed_by, source_alert_id, witnesses,
			followup_due_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.ExecContext(ctx, query,
		c.CaseID,
		c.TenantID,
		c.ResidentID,
		string(c.State),
		c.Level,
		classificationJSON,
		c.PhysicalInjuryFlag,
		c.DismissalProposed,
		nullableString(c.DismissedBy),
		nullableString(c.SourceAlertID),
		witnessesJSON,
		c.FollowupDueAt,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create incident case",
			zap.String("tenant_id", tenantID),
			zap.String("case_id", c.CaseID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to create incident case: %w", err)
	}

	return nil
}

// UpdateIncidentCase 写回案例快照（可变字段）
// 不可变字段 case_id/tenant_id/resident_id/created_at 不更新
func (r *IncidentCaseRepository) UpdateIncidentCase(ctx context.Context, tenantID string, c *models.IncidentCase) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if c == nil || c.CaseID == "" {
		return fmt.Errorf("case_id is required")
	}

	witnessesJSON, err := json.Marshal(c.Witnesses)
	if err != nil {
		return fmt.Errorf("failed to marshal witnesses: %w", err)
	}

	query := `
		UPDATE incident_cases
		SET state = $1,
		    witnesses = $2,
		    followup_due_at = $3,
		    dismissal_proposed = $4,
		    dismissed_by = $5,
		    updated_at = $6
		WHERE case_id = $7
		  AND tenant_id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		string(c.State),
		witnessesJSON,
		c.FollowupDueAt,
		c.DismissalProposed,
		nullableString(c.DismissedBy),
		c.UpdatedAt,
		c.CaseID,
		tenantID,
	)
	if err != nil {
		r.logger.Error("Failed to update incident case",
			zap.String("tenant_id", tenantID),
			zap.String("case_id", c.CaseID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to update incident case: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("incident case not found: %s", c.CaseID)
	}

	return nil
}

// GetIncidentCase 根据 case_id 获取单个案例（需验证 tenant_id）
func (r *IncidentCaseRepository) GetIncidentCase(ctx context.Context, tenantID, caseID string) (*models.IncidentCase, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if caseID == "" {
		return nil, fmt.Errorf("case_id is required")
	}

	query := `
		SELECT
			case_id,
			tenant_id,
			resident_id,
			state,
			level,
			classification,
			physical_injury,
			dismissal_proposed,
			dismissed_by,
			source_alert_id,
			witnesses,
			followup_due_at,
			created_at,
			updated_at
		FROM incident_cases
		WHERE case_id = $1
		  AND tenant_id = $2
	`

	var c models.IncidentCase
	var state string
	var classificationJSON, witnessesJSON []byte
	var dismissedBy, sourceAlertID sql.NullString
	var followupDueAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, caseID, tenantID).Scan(
		&c.CaseID,
		&c.TenantID,
		&c.ResidentID,
		&state,
		&c.Level,
		&classificationJSON,
		&c.PhysicalInjuryFlag,
		&c.DismissalProposed,
		&dismissedBy,
		&sourceAlertID,
		&witnessesJSON,
		&followupDueAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("incident case not found: %s", caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get incident case: %w", err)
	}

	c.State = models.CaseState(state)
	if dismissedBy.Valid {
		c.DismissedBy = dismissedBy.String
	}
	if sourceAlertID.Valid {
		c.SourceAlertID = sourceAlertID.String
	}
	if followupDueAt.Valid {
		due := followupDueAt.Time
		c.FollowupDueAt = &due
	}
	if len(classificationJSON) > 0 && string(classificationJSON) != "null" {
		var classification models.ClassificationResult
		if err := json.Unmarshal(classificationJSON, &classification); err != nil {
			return nil, fmt.Errorf("failed to unmarshal classification: %w", err)
		}
		c.Classification = &classification
	}
	if len(witnessesJSON) > 0 {
		if err := json.Unmarshal(witnessesJSON, &c.Witnesses); err != nil {
			return nil, fmt.Errorf("failed to unmarshal witnesses: %w", err)
		}
	}

	return &c, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
