package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wisefido-careguard/internal/models"

	"go.uber.org/zap"
)

// ResidentRepository 住户仓库（为分类提供上下文）
type ResidentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewResidentRepository 创建住户仓库
func NewResidentRepository(db *sql.DB, logger *zap.Logger) *ResidentRepository {
	return &ResidentRepository{
		db:     db,
		logger: logger,
	}
}

// GetResidentContext 构建住户上下文
// 业务规则：
//   - tenant_id 和 resident_id 必填
//   - diagnosis_tags 从 residents.diagnosis_tags (JSONB) 读取
//   - is_repeat_pattern 由既往案例数派生（≥2 个历史案例）
//   - 住户不存在 → 返回空上下文（归因按 undetermined 处理），不报错
func (r *ResidentRepository) GetResidentContext(ctx context.Context, tenantID, residentID string) (models.ResidentContext, error) {
	empty := models.ResidentContext{Orientation: models.OrientationUnknown}
	if tenantID == "" {
		return empty, fmt.Errorf("tenant_id is required")
	}
	if residentID == "" {
		return empty, fmt.Errorf("resident_id is required")
	}

	query := `
		SELECT
			diagnosis_tags,
			orientation_status
		FROM residents
		WHERE resident_id = $1
		  AND tenant_id = $2
	`

	var diagnosisTags []byte
	var orientation sql.NullString

	err := r.db.QueryRowContext(ctx, query, residentID, tenantID).Scan(
		&diagnosisTags,
		&orientation,
	)
	if err == sql.ErrNoRows {
		r.logger.Warn("Resident not found, classification will use undetermined context",
			zap.String("tenant_id", tenantID),
			zap.String("resident_id", residentID),
		)
		return empty, nil
	}
	if err != nil {
		return empty, fmt.Errorf("failed to get resident: %w", err)
	}

	result := models.ResidentContext{Orientation: models.OrientationUnknown}
	if len(diagnosisTags) > 0 {
		if err := json.Unmarshal(diagnosisTags, &result.DiagnosisTags); err != nil {
			return empty, fmt.Errorf("failed to unmarshal diagnosis_tags: %w", err)
		}
	}
	if orientation.Valid && orientation.String != "" {
		result.Orientation = models.OrientationStatus(orientation.String)
	}

	repeat, err := r.hasRepeatPattern(ctx, tenantID, residentID)
	if err != nil {
		return empty, err
	}
	result.IsRepeatPattern = repeat

	return result, nil
}

// hasRepeatPattern 既往案例数是否构成重复模式（≥2）
func (r *ResidentRepository) hasRepeatPattern(ctx context.Context, tenantID, residentID string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM incident_cases
		WHERE resident_id = $1
		  AND tenant_id = $2
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, residentID, tenantID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count prior cases: %w", err)
	}
	return count >= 2, nil
}
