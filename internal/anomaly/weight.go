package anomaly

import (
	"wisefido-careguard/internal/models"
)

// evaluateWeight 体重规则：
//  1. 最新读数相对 ≥lookback 天前的读数下降达到阈值比例
//     （默认 4% / 30 天）→ WARNING
//  2. 最近 N 条读数严格单调下降（默认 3 条）→ 至少 INFO
//
// 两条规则可同时命中；严重度取较高者
// 前置条件：调用方已持有窗口锁
func (d *Detector) evaluateWeight(w *residentWindow) *models.AnomalyAlert {
	if len(w.observations) < 2 {
		return nil
	}

	newest := w.observations[len(w.observations)-1]
	var reasons []models.ReasonCode
	severity := models.SeverityInfo

	// 规则1：对比回看窗口之前最近的一条读数
	if baseline := d.lookbackReading(w, newest); baseline != nil && baseline.Value > 0 {
		drop := (baseline.Value - newest.Value) / baseline.Value
		if drop >= d.cfg.WeightDropFraction {
			reasons = append(reasons, models.ReasonWeightDrop)
			severity = models.SeverityWarning
		}
	}

	// 规则2：最近 N 条读数单调下降
	if d.monotonicDecline(w) {
		reasons = append(reasons, models.ReasonWeightMonotonicDecline)
	}

	if len(reasons) == 0 {
		return nil
	}

	window := append([]models.MetricObservation(nil), w.observations...)
	return &models.AnomalyAlert{
		Window:      window,
		ReasonCodes: reasons,
		Severity:    severity,
	}
}

// lookbackReading 最新读数之前、时间间隔 ≥ lookback 天的最近一条读数
func (d *Detector) lookbackReading(w *residentWindow, newest models.MetricObservation) *models.MetricObservation {
	cutoff := newest.Timestamp.AddDate(0, 0, -d.cfg.WeightLookbackDays)
	for i := len(w.observations) - 2; i >= 0; i-- {
		obs := w.observations[i]
		if !obs.Timestamp.After(cutoff) {
			return &obs
		}
	}
	return nil
}

// monotonicDecline 最近 N 条读数是否严格单调下降
func (d *Detector) monotonicDecline(w *residentWindow) bool {
	n := d.cfg.MonotonicRunLength
	if n < 2 || len(w.observations) < n {
		return false
	}
	recent := w.observations[len(w.observations)-n:]
	for i := 1; i < len(recent); i++ {
		if recent[i].Value >= recent[i-1].Value {
			return false
		}
	}
	return true
}
