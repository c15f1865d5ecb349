package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wisefido-careguard/internal/models"

	"go.uber.org/zap"
)

// ObservationRepository 观测记录仓库（对应 metric_observations 表）
// 表是仅追加的：没有 UPDATE/DELETE —— 检测器的不变量依赖完整、
// 未编辑的观测历史
type ObservationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewObservationRepository 创建观测记录仓库
func NewObservationRepository(db *sql.DB, logger *zap.Logger) *ObservationRepository {
	return &ObservationRepository{
		db:     db,
		logger: logger,
	}
}

// AppendObservation 追加一条观测
// 重复追加（同住户、指标、时间戳、数值）静默忽略，保证幂等
func (r *ObservationRepository) AppendObservation(ctx context.Context, tenantID string, obs models.MetricObservation) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if obs.ResidentID == "" {
		return fmt.Errorf("resident_id is required")
	}
	if obs.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	query := `
		INSERT INTO metric_observations (
			tenant_id, resident_id, metric, value, unrecorded_cause, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, resident_id, metric, recorded_at, value) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		tenantID,
		obs.ResidentID,
		string(obs.Metric),
		obs.Value,
		obs.UnrecordedCause,
		obs.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append observation",
			zap.String("tenant_id", tenantID),
			zap.String("resident_id", obs.ResidentID),
			zap.String("metric", string(obs.Metric)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to append observation: %w", err)
	}

	return nil
}

// ListObservations 按时间升序列出观测历史（服务启动时回放进检测器）
func (r *ObservationRepository) ListObservations(ctx context.Context, tenantID string) ([]models.MetricObservation, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT
			resident_id,
			metric,
			value,
			unrecorded_cause,
			recorded_at
		FROM metric_observations
		WHERE tenant_id = $1
		ORDER BY recorded_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer rows.Close()

	var observations []models.MetricObservation
	for rows.Next() {
		var obs models.MetricObservation
		var metric string
		if err := rows.Scan(
			&obs.ResidentID,
			&metric,
			&obs.Value,
			&obs.UnrecordedCause,
			&obs.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs.Metric = models.Metric(metric)
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}

	return observations, nil
}
