package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"wisefido-careguard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupObservationRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *ObservationRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewObservationRepository(db, zap.NewNop())
	return db, mock, repo
}

func TestAppendObservation_Success(t *testing.T) {
	db, mock, repo := setupObservationRepo(t)
	defer db.Close()

	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO metric_observations`).
		WithArgs("tenant-1", "res-1", "injury", 1.0, true, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendObservation(context.Background(), "tenant-1", models.MetricObservation{
		ResidentID:      "res-1",
		Metric:          models.MetricInjury,
		Value:           1,
		UnrecordedCause: true,
		Timestamp:       ts,
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendObservation_DuplicateIsSilent(t *testing.T) {
	db, mock, repo := setupObservationRepo(t)
	defer db.Close()

	// ON CONFLICT DO NOTHING：重复行不影响任何行，也不报错
	mock.ExpectExec(`INSERT INTO metric_observations`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AppendObservation(context.Background(), "tenant-1", models.MetricObservation{
		ResidentID: "res-1",
		Metric:     models.MetricWeight,
		Value:      80.0,
		Timestamp:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendObservation_Validation(t *testing.T) {
	db, _, repo := setupObservationRepo(t)
	defer db.Close()

	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	err := repo.AppendObservation(context.Background(), "", models.MetricObservation{
		ResidentID: "res-1", Metric: models.MetricWeight, Timestamp: ts,
	})
	assert.ErrorContains(t, err, "tenant_id is required")

	err = repo.AppendObservation(context.Background(), "tenant-1", models.MetricObservation{
		Metric: models.MetricWeight, Timestamp: ts,
	})
	assert.ErrorContains(t, err, "resident_id is required")

	err = repo.AppendObservation(context.Background(), "tenant-1", models.MetricObservation{
		ResidentID: "res-1", Metric: models.MetricWeight,
	})
	assert.ErrorContains(t, err, "timestamp is required")
}

func TestListObservations_Success(t *testing.T) {
	db, mock, repo := setupObservationRepo(t)
	defer db.Close()

	t1 := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 4, 15, 8, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"resident_id", "metric", "value", "unrecorded_cause", "recorded_at"}).
		AddRow("res-1", "weight", 80.0, false, t1).
		AddRow("res-1", "injury", 1.0, true, t2)

	mock.ExpectQuery(`SELECT`).
		WithArgs("tenant-1").
		WillReturnRows(rows)

	observations, err := repo.ListObservations(context.Background(), "tenant-1")
	require.NoError(t, err)

	require.Len(t, observations, 2)
	assert.Equal(t, models.MetricWeight, observations[0].Metric)
	assert.Equal(t, 80.0, observations[0].Value)
	assert.Equal(t, models.MetricInjury, observations[1].Metric)
	assert.True(t, observations[1].UnrecordedCause)
	assert.Equal(t, t2, observations[1].Timestamp)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListObservations_Empty(t *testing.T) {
	db, mock, repo := setupObservationRepo(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"resident_id", "metric", "value", "unrecorded_cause", "recorded_at"})
	mock.ExpectQuery(`SELECT`).
		WithArgs("tenant-1").
		WillReturnRows(rows)

	observations, err := repo.ListObservations(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Empty(t, observations)

	assert.NoError(t, mock.ExpectationsWereMet())
}
