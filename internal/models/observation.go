package models

import (
	"time"
)

// Metric 纵向监测指标类型
type Metric string

const (
	MetricInjury Metric = "injury" // 伤痕/淤青记录，Value 固定为 1
	MetricWeight Metric = "weight" // 体重（kg）
)

// MetricObservation 结构化观测记录（仅追加，不修改不删除）
// 检测器的不变量：每个报警都源于完整、未编辑的观测历史
type MetricObservation struct {
	ResidentID      string    `json:"resident_id"`
	Metric          Metric    `json:"metric"`
	Value           float64   `json:"value"`
	UnrecordedCause bool      `json:"unrecorded_cause"` // 无已记录原因（伤痕无解释时 true）
	Timestamp       time.Time `json:"timestamp"`
}

// ReasonCode 异常报警的候选原因编码
// 伤痕报警始终提供全部三个候选原因，由人工选择，从不自动认定
type ReasonCode string

const (
	ReasonFallPattern           ReasonCode = "fall_pattern"
	ReasonMedicationSideEffect  ReasonCode = "medication_side_effect"
	ReasonSuspectedHarm         ReasonCode = "suspected_harm"
	ReasonWeightDrop            ReasonCode = "weight_drop"
	ReasonWeightMonotonicDecline ReasonCode = "weight_monotonic_decline"
)

// AlertSeverity 异常报警严重度
type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "INFO"
	SeverityWarning AlertSeverity = "WARNING"
	SeverityHigh    AlertSeverity = "HIGH"
)

// AnomalyAlert 趋势异常报警（发出后不可变）
type AnomalyAlert struct {
	AlertID     string              `json:"alert_id"`
	ResidentID  string              `json:"resident_id"`
	Metric      Metric              `json:"metric"`
	Window      []MetricObservation `json:"window_observations"` // 按时间升序
	ReasonCodes []ReasonCode        `json:"reason_codes"`
	Severity    AlertSeverity       `json:"severity"`
	RaisedAt    time.Time           `json:"raised_at"`
}
