package consumer

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"wisefido-careguard/internal/anomaly"
	commonredis "wisefido-careguard/internal/common/redis"
	"wisefido-careguard/internal/config"
	"wisefido-careguard/internal/engine"
	"wisefido-careguard/internal/models"
	"wisefido-careguard/internal/repository"
	"wisefido-careguard/internal/workflow"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingSink 收集编排器发出的事件
type recordingSink struct {
	mu     sync.Mutex
	events []models.AlertEvent
}

func (s *recordingSink) Emit(event models.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

type consumerFixture struct {
	consumer    *StreamConsumer
	redisClient *redis.Client
	mock        sqlmock.Sqlmock
	sink        *recordingSink
	cfg         *config.Config
}

func setupConsumer(t *testing.T) (*miniredis.Miniredis, *sql.DB, *consumerFixture) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Guard.Streams.Narratives = "careguard:narratives"
	cfg.Guard.Streams.Observations = "careguard:observations"
	cfg.Guard.Streams.Cases = "careguard:cases"
	cfg.Guard.Streams.ConsumerGroup = "careguard"
	cfg.Guard.Streams.ConsumerName = "careguard-test"
	cfg.Guard.Streams.BatchSize = 10
	cfg.Guard.DefaultLanguage = "de"

	logger := zap.NewNop()
	sink := &recordingSink{}
	fixture := &consumerFixture{
		redisClient: redisClient,
		mock:        mock,
		sink:        sink,
		cfg:         cfg,
	}
	fixture.consumer = NewStreamConsumer(
		cfg,
		redisClient,
		repository.NewResidentRepository(db, logger),
		repository.NewIncidentCaseRepository(db, logger),
		repository.NewObservationRepository(db, logger),
		engine.NewEngine(logger),
		workflow.NewOrchestrator("tenant-1", sink, 24*time.Hour, logger),
		anomaly.NewDetector(anomaly.DefaultConfig(), logger),
		logger,
		"tenant-1",
	)

	ctx := context.Background()
	require.NoError(t, commonredis.CreateConsumerGroup(ctx, redisClient, cfg.Guard.Streams.Narratives, "careguard"))
	require.NoError(t, commonredis.CreateConsumerGroup(ctx, redisClient, cfg.Guard.Streams.Observations, "careguard"))
	require.NoError(t, commonredis.CreateConsumerGroup(ctx, redisClient, cfg.Guard.Streams.Cases, "careguard"))

	return mr, db, fixture
}

func expectResidentContext(mock sqlmock.Sqlmock, residentID string, tags string, orientation string, priorCases int) {
	rows := sqlmock.NewRows([]string{"diagnosis_tags", "orientation_status"}).
		AddRow([]byte(tags), orientation)
	mock.ExpectQuery(`SELECT`).
		WithArgs(residentID, "tenant-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(residentID, "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(priorCases))
}

func TestConsumeNarrative_EmergencyCreatesAndPersistsCase(t *testing.T) {
	_, db, f := setupConsumer(t)
	defer db.Close()

	ctx := context.Background()
	_, err := commonredis.PublishToStream(ctx, f.redisClient, f.cfg.Guard.Streams.Narratives, map[string]interface{}{
		"resident_id": "res-1",
		"text":        "Hat mich geschlagen!",
		"language":    "de",
	})
	require.NoError(t, err)

	expectResidentContext(f.mock, "res-1", `[]`, "oriented", 0)
	f.mock.ExpectExec(`INSERT INTO incident_cases`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Narratives, f.consumer.handleNarrative)
	require.NoError(t, err)

	assert.NoError(t, f.mock.ExpectationsWereMet())

	// EMERGENCY 自动推进到 report_pending，每次迁移都发事件
	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	require.Len(t, f.sink.events, 3)
	assert.Equal(t, "case_opened", f.sink.events[0].Transition)
	assert.Equal(t, "documented->report_pending", f.sink.events[2].Transition)
	assert.Equal(t, "EMERGENCY", f.sink.events[0].Level)

	// 消息已确认
	pending, err := f.redisClient.XPending(context.Background(), f.cfg.Guard.Streams.Narratives, "careguard").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestConsumeNarrative_HarmlessCreatesNoCase(t *testing.T) {
	_, db, f := setupConsumer(t)
	defer db.Close()

	ctx := context.Background()
	_, err := commonredis.PublishToStream(ctx, f.redisClient, f.cfg.Guard.Streams.Narratives, map[string]interface{}{
		"resident_id": "res-1",
		"text":        "Du bist so dumm!",
		"language":    "de",
	})
	require.NoError(t, err)

	expectResidentContext(f.mock, "res-1", `["Demenz"]`, "disoriented", 0)

	err = f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Narratives, f.consumer.handleNarrative)
	require.NoError(t, err)

	// 无 INSERT 期待：不可上报的叙述不落库
	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.Empty(t, f.sink.events)
}

func TestConsumeNarrative_MalformedMessageAckedAndSkipped(t *testing.T) {
	_, db, f := setupConsumer(t)
	defer db.Close()

	ctx := context.Background()
	// 缺少 text 字段
	_, err := commonredis.PublishToStream(ctx, f.redisClient, f.cfg.Guard.Streams.Narratives, map[string]interface{}{
		"resident_id": "res-1",
	})
	require.NoError(t, err)

	err = f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Narratives, f.consumer.handleNarrative)
	require.NoError(t, err)

	// 格式错误的消息被确认，不阻塞流
	pending, err := f.redisClient.XPending(ctx, f.cfg.Guard.Streams.Narratives, "careguard").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestConsumeObservation_PersistsAndFeedsDetector(t *testing.T) {
	_, db, f := setupConsumer(t)
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// 三条无解释伤痕：第三条触发 HIGH 报警并开案
	for i := 0; i < 3; i++ {
		_, err := commonredis.PublishToStream(ctx, f.redisClient, f.cfg.Guard.Streams.Observations, map[string]interface{}{
			"resident_id":      "res-1",
			"metric":           "injury",
			"value":            "1",
			"unrecorded_cause": "true",
			"timestamp":        fmt.Sprintf("%d", base.AddDate(0, 0, i*10).Unix()),
		})
		require.NoError(t, err)
		f.mock.ExpectExec(`INSERT INTO metric_observations`).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	f.mock.ExpectExec(`INSERT INTO incident_cases`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Observations, f.consumer.handleObservation)
	require.NoError(t, err)

	assert.NoError(t, f.mock.ExpectationsWereMet())

	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	require.NotEmpty(t, f.sink.events)
	assert.Equal(t, "anomaly_detected", f.sink.events[0].Transition)
	assert.Equal(t, "HIGH", f.sink.events[0].Level)
}

func TestConsumeObservation_InvalidValueAcked(t *testing.T) {
	_, db, f := setupConsumer(t)
	defer db.Close()

	ctx := context.Background()
	_, err := commonredis.PublishToStream(ctx, f.redisClient, f.cfg.Guard.Streams.Observations, map[string]interface{}{
		"resident_id": "res-1",
		"metric":      "weight",
		"value":       "not-a-number",
		"timestamp":   "1770000000",
	})
	require.NoError(t, err)

	err = f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Observations, f.consumer.handleObservation)
	require.NoError(t, err)

	pending, err := f.redisClient.XPending(ctx, f.cfg.Guard.Streams.Observations, "careguard").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

// seedEmergencyCase 直接通过编排器开案（EMERGENCY 自动推进到 report_pending）
func seedEmergencyCase(t *testing.T, f *consumerFixture) string {
	t.Helper()
	result := models.ClassificationResult{
		OverallCategory:    models.CategoryEmergency,
		LanguageKnown:      true,
		RecommendedActions: []string{"Sofortige Meldung an die Pflegedienstleitung"},
	}
	c, err := f.consumer.orchestrator.Intake("res-1", result)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, models.CaseReportPending, c.State)
	return c.CaseID
}

func publishCaseCommand(t *testing.T, f *consumerFixture, values map[string]interface{}) {
	t.Helper()
	_, err := commonredis.PublishToStream(context.Background(), f.redisClient, f.cfg.Guard.Streams.Cases, values)
	require.NoError(t, err)
}

func TestConsumeCaseCommand_MarkReportedPersistsSnapshot(t *testing.T) {
	_, db, f := setupConsumer(t)
	defer db.Close()

	ctx := context.Background()
	caseID := seedEmergencyCase(t, f)

	publishCaseCommand(t, f, map[string]interface{}{
		"case_id":   caseID,
		"action":    "mark_reported",
		"witnesses": "Pflegerin A, Pfleger B",
	})
	f.mock.ExpectExec(`UPDATE incident_cases`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Cases, f.consumer.handleCaseCommand)
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	// EMERGENCY 必须跟进：reported 后自动进入 followup_scheduled
	snapshot, err := f.consumer.orchestrator.Case(caseID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseFollowupScheduled, snapshot.State)
	assert.Equal(t, []string{"Pflegerin A", "Pfleger B"}, snapshot.Witnesses)
	require.NotNil(t, snapshot.FollowupDueAt)
	assert.Equal(t, snapshot.CreatedAt.Add(24*time.Hour), *snapshot.FollowupDueAt)

	// 关闭指令再次写回快照
	publishCaseCommand(t, f, map[string]interface{}{
		"case_id": caseID,
		"action":  "close",
	})
	f.mock.ExpectExec(`UPDATE incident_cases`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Cases, f.consumer.handleCaseCommand)
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	snapshot, err = f.consumer.orchestrator.Case(caseID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseClosed, snapshot.State)
}

func TestConsumeCaseCommand_RestoresPersistedCase(t *testing.T) {
	_, db, f := setupConsumer(t)
	defer db.Close()

	ctx := context.Background()
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// 编排器不认识该案例：先从仓库加载恢复，再应用迁移并写回
	publishCaseCommand(t, f, map[string]interface{}{
		"case_id":   "case-db-1",
		"action":    "mark_reported",
		"witnesses": "Pflegerin A",
	})

	rows := sqlmock.NewRows([]string{
		"case_id", "tenant_id", "resident_id", "state", "level",
		"classification", "physical_injury", "dismissal_proposed",
		"dismissed_by", "source_alert_id", "witnesses",
		"followup_due_at", "created_at", "updated_at",
	}).AddRow(
		"case-db-1", "tenant-1", "res-1", "report_pending", "EMERGENCY",
		[]byte(`{"overall_category":3,"matches":null,"neutral_documentation":"","physical_injury_candidate":false,"language_known":true,"recommended_actions":null}`),
		false, false,
		nil, nil, []byte(`[]`),
		nil, createdAt, createdAt,
	)
	f.mock.ExpectQuery(`SELECT`).
		WithArgs("case-db-1", "tenant-1").
		WillReturnRows(rows)
	f.mock.ExpectExec(`UPDATE incident_cases`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Cases, f.consumer.handleCaseCommand)
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	snapshot, err := f.consumer.orchestrator.Case("case-db-1")
	require.NoError(t, err)
	assert.Equal(t, models.CaseFollowupScheduled, snapshot.State)
	require.NotNil(t, snapshot.FollowupDueAt)
	assert.Equal(t, createdAt.Add(24*time.Hour), *snapshot.FollowupDueAt)
}

func TestConsumeCaseCommand_InvalidTransitionLeavesCaseUnchanged(t *testing.T) {
	_, db, f := setupConsumer(t)
	defer db.Close()

	ctx := context.Background()
	caseID := seedEmergencyCase(t, f)

	// report_pending 不允许直接 close：状态机拒绝，不产生 UPDATE
	publishCaseCommand(t, f, map[string]interface{}{
		"case_id": caseID,
		"action":  "close",
	})

	err := f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Cases, f.consumer.handleCaseCommand)
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	snapshot, err := f.consumer.orchestrator.Case(caseID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseReportPending, snapshot.State)

	pending, err := f.redisClient.XPending(ctx, f.cfg.Guard.Streams.Cases, "careguard").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestConsumeCaseCommand_UnknownActionAcked(t *testing.T) {
	_, db, f := setupConsumer(t)
	defer db.Close()

	ctx := context.Background()
	publishCaseCommand(t, f, map[string]interface{}{
		"case_id": "case-1",
		"action":  "escalate",
	})

	err := f.consumer.consumeOnce(ctx, f.cfg.Guard.Streams.Cases, f.consumer.handleCaseCommand)
	require.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	pending, err := f.redisClient.XPending(ctx, f.cfg.Guard.Streams.Cases, "careguard").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}
