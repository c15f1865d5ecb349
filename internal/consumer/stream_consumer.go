package consumer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wisefido-careguard/internal/anomaly"
	commonredis "wisefido-careguard/internal/common/redis"
	"wisefido-careguard/internal/config"
	"wisefido-careguard/internal/engine"
	"wisefido-careguard/internal/models"
	"wisefido-careguard/internal/repository"
	"wisefido-careguard/internal/workflow"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StreamConsumer Redis Streams 消费者
// 消费三条流：叙述文本事件、结构化观测事件 和 案例指令事件
// 错误局部化：单条消息格式错误 → 记录日志并确认，从不阻塞流
type StreamConsumer struct {
	config       *config.Config
	redisClient  *redis.Client
	residentRepo *repository.ResidentRepository
	caseRepo     *repository.IncidentCaseRepository
	obsRepo      *repository.ObservationRepository
	engine       *engine.Engine
	orchestrator *workflow.Orchestrator
	detector     *anomaly.Detector
	logger       *zap.Logger
	tenantID     string
}

// NewStreamConsumer 创建流消费者
func NewStreamConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	residentRepo *repository.ResidentRepository,
	caseRepo *repository.IncidentCaseRepository,
	obsRepo *repository.ObservationRepository,
	eng *engine.Engine,
	orchestrator *workflow.Orchestrator,
	detector *anomaly.Detector,
	logger *zap.Logger,
	tenantID string,
) *StreamConsumer {
	return &StreamConsumer{
		config:       cfg,
		redisClient:  redisClient,
		residentRepo: residentRepo,
		caseRepo:     caseRepo,
		obsRepo:      obsRepo,
		engine:       eng,
		orchestrator: orchestrator,
		detector:     detector,
		logger:       logger,
		tenantID:     tenantID,
	}
}

// Start 启动消费者（阻塞直到 ctx 取消）
func (c *StreamConsumer) Start(ctx context.Context) error {
	streams := c.config.Guard.Streams
	for _, stream := range []string{streams.Narratives, streams.Observations, streams.Cases} {
		if err := commonredis.CreateConsumerGroup(ctx, c.redisClient, stream, streams.ConsumerGroup); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", stream, err)
		}
	}

	c.logger.Info("Stream consumer started",
		zap.String("tenant_id", c.tenantID),
		zap.String("narratives_stream", streams.Narratives),
		zap.String("observations_stream", streams.Observations),
		zap.String("cases_stream", streams.Cases),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stream consumer stopped")
			return nil
		default:
		}

		if err := c.consumeOnce(ctx, streams.Narratives, c.handleNarrative); err != nil {
			c.logger.Error("Failed to consume narratives stream", zap.Error(err))
		}
		if err := c.consumeOnce(ctx, streams.Observations, c.handleObservation); err != nil {
			c.logger.Error("Failed to consume observations stream", zap.Error(err))
		}
		if err := c.consumeOnce(ctx, streams.Cases, c.handleCaseCommand); err != nil {
			c.logger.Error("Failed to consume cases stream", zap.Error(err))
		}
	}
}

// consumeOnce 读取一批消息并逐条处理
// 处理失败的消息同样确认：错误只影响该条消息，不得阻塞后续处理
func (c *StreamConsumer) consumeOnce(ctx context.Context, stream string, handle func(context.Context, commonredis.StreamMessage) error) error {
	streams := c.config.Guard.Streams
	messages, err := commonredis.ReadFromStream(ctx, c.redisClient, stream,
		streams.ConsumerGroup, streams.ConsumerName, streams.BatchSize)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		if err := handle(ctx, msg); err != nil {
			c.logger.Error("Failed to handle stream message",
				zap.String("stream", stream),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
		if err := commonredis.AckMessages(ctx, c.redisClient, stream, streams.ConsumerGroup, msg.ID); err != nil {
			c.logger.Error("Failed to ack stream message",
				zap.String("stream", stream),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// handleNarrative 处理单条叙述事件
// 字段：resident_id（必填）、text（必填）、language（缺省用配置默认值）
func (c *StreamConsumer) handleNarrative(ctx context.Context, msg commonredis.StreamMessage) error {
	residentID := stringValue(msg.Values, "resident_id")
	text := stringValue(msg.Values, "text")
	if residentID == "" || text == "" {
		return fmt.Errorf("narrative message missing resident_id or text")
	}

	language := stringValue(msg.Values, "language")
	if language == "" {
		language = c.config.Guard.DefaultLanguage
	}

	residentCtx, err := c.residentRepo.GetResidentContext(ctx, c.tenantID, residentID)
	if err != nil {
		return fmt.Errorf("failed to get resident context: %w", err)
	}

	result := c.engine.Analyze(text, models.LanguageCode(language), residentCtx)

	incidentCase, err := c.orchestrator.Intake(residentID, result)
	if err != nil {
		return fmt.Errorf("failed to intake classification: %w", err)
	}
	if incidentCase == nil {
		return nil
	}

	if err := c.caseRepo.CreateIncidentCase(ctx, c.tenantID, incidentCase); err != nil {
		return err
	}

	c.logger.Info("Narrative produced incident case",
		zap.String("resident_id", residentID),
		zap.String("case_id", incidentCase.CaseID),
		zap.String("category", result.OverallCategory.String()),
		zap.String("state", string(incidentCase.State)),
	)
	return nil
}

// handleObservation 处理单条观测事件
// 字段：resident_id、metric、value、unrecorded_cause、timestamp（unix 秒）
func (c *StreamConsumer) handleObservation(ctx context.Context, msg commonredis.StreamMessage) error {
	residentID := stringValue(msg.Values, "resident_id")
	metric := stringValue(msg.Values, "metric")
	if residentID == "" || metric == "" {
		return fmt.Errorf("observation message missing resident_id or metric")
	}

	value, err := strconv.ParseFloat(stringValue(msg.Values, "value"), 64)
	if err != nil {
		return fmt.Errorf("invalid observation value: %w", err)
	}
	unixSec, err := strconv.ParseInt(stringValue(msg.Values, "timestamp"), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid observation timestamp: %w", err)
	}

	obs := models.MetricObservation{
		ResidentID:      residentID,
		Metric:          models.Metric(metric),
		Value:           value,
		UnrecordedCause: stringValue(msg.Values, "unrecorded_cause") == "true",
		Timestamp:       time.Unix(unixSec, 0).UTC(),
	}

	// 先持久化（仅追加），再进入检测器评估
	if err := c.obsRepo.AppendObservation(ctx, c.tenantID, obs); err != nil {
		return err
	}

	alert, err := c.detector.Record(obs)
	if err != nil {
		return fmt.Errorf("failed to record observation: %w", err)
	}
	if alert == nil {
		return nil
	}

	incidentCase, err := c.orchestrator.IntakeAnomaly(*alert)
	if err != nil {
		return fmt.Errorf("failed to intake anomaly alert: %w", err)
	}
	if incidentCase != nil {
		if err := c.caseRepo.CreateIncidentCase(ctx, c.tenantID, incidentCase); err != nil {
			return err
		}
	}

	return nil
}

// handleCaseCommand 处理单条案例指令事件（审核人驱动的状态迁移）
// 字段：case_id（必填）、action（必填：document/request_report/
// mark_reported/close/dismiss）、reviewer（dismiss 必填）、
// witnesses（逗号分隔，mark_reported 使用）
// 业务规则：
//   - 编排器未跟踪的案例先从仓库加载恢复再重试（进程重启后的存量案例）
//   - 迁移成功后将案例快照写回仓库；非法迁移由状态机拒绝，案例不变
func (c *StreamConsumer) handleCaseCommand(ctx context.Context, msg commonredis.StreamMessage) error {
	caseID := stringValue(msg.Values, "case_id")
	action := stringValue(msg.Values, "action")
	if caseID == "" || action == "" {
		return fmt.Errorf("case command missing case_id or action")
	}

	if err := c.applyCaseAction(caseID, action, msg); err != nil {
		if !errors.Is(err, workflow.ErrCaseNotFound) {
			return err
		}
		persisted, getErr := c.caseRepo.GetIncidentCase(ctx, c.tenantID, caseID)
		if getErr != nil {
			return fmt.Errorf("failed to load incident case: %w", getErr)
		}
		if restoreErr := c.orchestrator.Restore(persisted); restoreErr != nil {
			return restoreErr
		}
		if err := c.applyCaseAction(caseID, action, msg); err != nil {
			return err
		}
	}

	snapshot, err := c.orchestrator.Case(caseID)
	if err != nil {
		return err
	}
	if err := c.caseRepo.UpdateIncidentCase(ctx, c.tenantID, snapshot); err != nil {
		return err
	}

	c.logger.Info("Case command applied",
		zap.String("case_id", caseID),
		zap.String("action", action),
		zap.String("state", string(snapshot.State)),
	)
	return nil
}

// applyCaseAction 将指令映射为编排器迁移调用
func (c *StreamConsumer) applyCaseAction(caseID, action string, msg commonredis.StreamMessage) error {
	switch action {
	case "document":
		return c.orchestrator.Document(caseID)
	case "request_report":
		return c.orchestrator.RequestReport(caseID)
	case "mark_reported":
		return c.orchestrator.MarkReported(caseID, splitWitnesses(stringValue(msg.Values, "witnesses")))
	case "close":
		return c.orchestrator.Close(caseID)
	case "dismiss":
		return c.orchestrator.Dismiss(caseID, stringValue(msg.Values, "reviewer"))
	default:
		return fmt.Errorf("unknown case action: %s", action)
	}
}

func splitWitnesses(raw string) []string {
	if raw == "" {
		return nil
	}
	var witnesses []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			witnesses = append(witnesses, trimmed)
		}
	}
	return witnesses
}

func stringValue(values map[string]interface{}, key string) string {
	if v, ok := values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
