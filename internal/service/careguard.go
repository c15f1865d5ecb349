package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wisefido-careguard/internal/anomaly"
	commonmqtt "wisefido-careguard/internal/common/mqtt"
	commonredis "wisefido-careguard/internal/common/redis"
	"wisefido-careguard/internal/config"
	"wisefido-careguard/internal/consumer"
	"wisefido-careguard/internal/engine"
	"wisefido-careguard/internal/notifier"
	"wisefido-careguard/internal/repository"
	"wisefido-careguard/internal/workflow"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// CareGuardService 守护服务（整合各层）
type CareGuardService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *commonmqtt.Client
	logger      *zap.Logger
	tenantID    string

	// 各层组件
	residentRepo   *repository.ResidentRepository
	caseRepo       *repository.IncidentCaseRepository
	obsRepo        *repository.ObservationRepository
	engine         *engine.Engine
	orchestrator   *workflow.Orchestrator
	detector       *anomaly.Detector
	streamConsumer *consumer.StreamConsumer
}

// NewCareGuardService 创建守护服务
func NewCareGuardService(cfg *config.Config, logger *zap.Logger, tenantID string) (*CareGuardService, error) {
	// 1. 连接数据库
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试数据库连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdle)

	// 2. 连接 Redis
	redisClient := commonredis.NewRedisClient(&cfg.Redis)

	ctx := context.Background()
	if err := commonredis.Ping(ctx, redisClient); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 连接 MQTT
	mqttClient, err := commonmqtt.NewClient(&cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect mqtt: %w", err)
	}

	// 4. 创建 Repository 层
	residentRepo := repository.NewResidentRepository(db, logger)
	caseRepo := repository.NewIncidentCaseRepository(db, logger)
	obsRepo := repository.NewObservationRepository(db, logger)

	// 5. 创建核心组件
	eng := engine.NewEngine(logger)

	alertSink := notifier.NewMQTTNotifier(mqttClient, cfg.Guard.AlertTopic, cfg.MQTT.QoS, logger)
	followupDelay := time.Duration(cfg.Guard.Workflow.FollowupDelayHours) * time.Hour
	orchestrator := workflow.NewOrchestrator(tenantID, alertSink, followupDelay, logger)

	detector := anomaly.NewDetector(anomaly.Config{
		WindowDays:           cfg.Guard.Anomaly.WindowDays,
		InjuryCountThreshold: cfg.Guard.Anomaly.InjuryCountThreshold,
		WeightDropFraction:   cfg.Guard.Anomaly.WeightDropFraction,
		WeightLookbackDays:   cfg.Guard.Anomaly.WeightLookbackDays,
		MonotonicRunLength:   cfg.Guard.Anomaly.MonotonicRunLength,
	}, logger)

	// 6. 创建 StreamConsumer
	streamConsumer := consumer.NewStreamConsumer(
		cfg,
		redisClient,
		residentRepo,
		caseRepo,
		obsRepo,
		eng,
		orchestrator,
		detector,
		logger,
		tenantID,
	)

	return &CareGuardService{
		config:         cfg,
		db:             db,
		redisClient:    redisClient,
		mqttClient:     mqttClient,
		logger:         logger,
		tenantID:       tenantID,
		residentRepo:   residentRepo,
		caseRepo:       caseRepo,
		obsRepo:        obsRepo,
		engine:         eng,
		orchestrator:   orchestrator,
		detector:       detector,
		streamConsumer: streamConsumer,
	}, nil
}

// Start 启动服务
// 启动前回放历史观测，重建检测窗口；回放产生的告警已在首次发出时处理，丢弃
func (s *CareGuardService) Start(ctx context.Context) error {
	s.logger.Info("Starting careguard service",
		zap.String("tenant_id", s.tenantID),
	)

	if err := s.replayObservations(ctx); err != nil {
		return fmt.Errorf("failed to replay observations: %w", err)
	}

	if err := s.streamConsumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start stream consumer: %w", err)
	}

	return nil
}

// replayObservations 回放持久化观测到检测器
func (s *CareGuardService) replayObservations(ctx context.Context) error {
	observations, err := s.obsRepo.ListObservations(ctx, s.tenantID)
	if err != nil {
		return err
	}

	replayed := 0
	for _, obs := range observations {
		if _, err := s.detector.Record(obs); err != nil {
			s.logger.Warn("Skipped invalid persisted observation",
				zap.String("resident_id", obs.ResidentID),
				zap.Error(err),
			)
			continue
		}
		replayed++
	}

	s.logger.Info("Observation replay complete",
		zap.Int("replayed", replayed),
	)
	return nil
}

// Stop 停止服务
func (s *CareGuardService) Stop() error {
	s.logger.Info("Stopping careguard service")

	s.mqttClient.Disconnect()

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}
