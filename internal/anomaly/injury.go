package anomaly

import (
	"wisefido-careguard/internal/models"
)

// evaluateInjury 伤痕规则：窗口内无已记录原因的伤痕观测数
// 达到阈值（默认 ≥3）→ HIGH 报警
// 三个候选原因全部给出，由人工选择，从不自动认定
// 前置条件：调用方已持有窗口锁
func (d *Detector) evaluateInjury(w *residentWindow) *models.AnomalyAlert {
	var unexplained []models.MetricObservation
	for _, obs := range w.observations {
		if obs.UnrecordedCause {
			unexplained = append(unexplained, obs)
		}
	}
	if len(unexplained) < d.cfg.InjuryCountThreshold {
		return nil
	}

	return &models.AnomalyAlert{
		Window: unexplained,
		ReasonCodes: []models.ReasonCode{
			models.ReasonFallPattern,
			models.ReasonMedicationSideEffect,
			models.ReasonSuspectedHarm,
		},
		Severity: models.SeverityHigh,
	}
}
