package anomaly

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wisefido-careguard/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config 检测阈值配置（由实现方选择并暴露，不由引擎临时发明）
type Config struct {
	WindowDays           int     // 滚动窗口天数，默认 90
	InjuryCountThreshold int     // 窗口内无解释伤痕次数阈值，默认 3
	WeightDropFraction   float64 // 体重下降比例阈值，默认 0.04
	WeightLookbackDays   int     // 体重对比回看天数，默认 30
	MonotonicRunLength   int     // 单调下降判定的读数条数，默认 3
}

// DefaultConfig 默认阈值
func DefaultConfig() Config {
	return Config{
		WindowDays:           90,
		InjuryCountThreshold: 3,
		WeightDropFraction:   0.04,
		WeightLookbackDays:   30,
		MonotonicRunLength:   3,
	}
}

// Detector 纵向趋势异常检测器
// 纯响应式：仅在追加观测时评估，从不定时扫描
// 幂等：重放同一观测序列产生完全相同的报警，且每个窗口成员组合
// 至多报警一次
type Detector struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	windows map[windowKey]*residentWindow
}

type windowKey struct {
	residentID string
	metric     models.Metric
}

// residentWindow 单个住户+指标的滚动窗口
// 追加+评估在窗口锁内原子执行，避免两个并发观测看到同一旧窗口
// 而重复触发
type residentWindow struct {
	mu           sync.Mutex
	observations []models.MetricObservation // 按时间戳升序（非插入顺序）
	seen         map[string]bool            // 观测去重（resident+metric+timestamp+value）
	alerted      map[string]bool            // 已报警的窗口成员指纹
}

// NewDetector 创建检测器
func NewDetector(cfg Config, logger *zap.Logger) *Detector {
	return &Detector{
		cfg:     cfg,
		logger:  logger,
		windows: make(map[windowKey]*residentWindow),
	}
}

// Record 追加一条观测并评估窗口
// 返回值为 nil 表示本次追加未产生新报警
// 错误只针对本条观测，不影响其他住户/指标的处理
func (d *Detector) Record(obs models.MetricObservation) (*models.AnomalyAlert, error) {
	if obs.ResidentID == "" {
		return nil, fmt.Errorf("resident_id is required")
	}
	if obs.Metric != models.MetricInjury && obs.Metric != models.MetricWeight {
		return nil, fmt.Errorf("unknown metric: %s", obs.Metric)
	}
	if obs.Timestamp.IsZero() {
		return nil, fmt.Errorf("timestamp is required")
	}

	w := d.window(obs.ResidentID, obs.Metric)

	w.mu.Lock()
	defer w.mu.Unlock()

	key := observationKey(obs)
	if w.seen[key] {
		// 重复追加：窗口不变，不重复报警
		return nil, nil
	}
	w.seen[key] = true
	w.insert(obs)
	w.prune(d.cfg.WindowDays)

	var alert *models.AnomalyAlert
	switch obs.Metric {
	case models.MetricInjury:
		alert = d.evaluateInjury(w)
	case models.MetricWeight:
		alert = d.evaluateWeight(w)
	}
	if alert == nil {
		return nil, nil
	}

	fingerprint := windowFingerprint(alert.Window)
	if w.alerted[fingerprint] {
		// 同一窗口成员组合已报过警，抑制重复
		return nil, nil
	}
	w.alerted[fingerprint] = true

	alert.AlertID = uuid.New().String()
	alert.ResidentID = obs.ResidentID
	alert.Metric = obs.Metric
	alert.RaisedAt = time.Now()

	d.logger.Info("Anomaly alert raised",
		zap.String("alert_id", alert.AlertID),
		zap.String("resident_id", obs.ResidentID),
		zap.String("metric", string(obs.Metric)),
		zap.String("severity", string(alert.Severity)),
		zap.Int("window_size", len(alert.Window)),
	)

	return alert, nil
}

func (d *Detector) window(residentID string, metric models.Metric) *residentWindow {
	key := windowKey{residentID: residentID, metric: metric}
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[key]
	if !ok {
		w = &residentWindow{
			seen:    make(map[string]bool),
			alerted: make(map[string]bool),
		}
		d.windows[key] = w
	}
	return w
}

// insert 按时间戳插入（晚到的旧观测会被正确落位到历史中）
func (w *residentWindow) insert(obs models.MetricObservation) {
	idx := sort.Search(len(w.observations), func(i int) bool {
		return w.observations[i].Timestamp.After(obs.Timestamp)
	})
	w.observations = append(w.observations, models.MetricObservation{})
	copy(w.observations[idx+1:], w.observations[idx:])
	w.observations[idx] = obs
}

// prune 丢弃窗口外的观测（相对最新观测的时间戳）
func (w *residentWindow) prune(windowDays int) {
	if len(w.observations) == 0 {
		return
	}
	cutoff := w.observations[len(w.observations)-1].Timestamp.AddDate(0, 0, -windowDays)
	idx := 0
	for idx < len(w.observations) && w.observations[idx].Timestamp.Before(cutoff) {
		idx++
	}
	w.observations = w.observations[idx:]
}

func observationKey(obs models.MetricObservation) string {
	return fmt.Sprintf("%s|%s|%d|%g", obs.ResidentID, obs.Metric, obs.Timestamp.UnixNano(), obs.Value)
}

// windowFingerprint 窗口成员指纹（成员完全相同 → 相同指纹）
func windowFingerprint(window []models.MetricObservation) string {
	keys := make([]string, 0, len(window))
	for _, obs := range window {
		keys = append(keys, observationKey(obs))
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}
