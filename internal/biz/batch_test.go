package biz

import (
	"context"
	"testing"

	"datacuration/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRequest_Validate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	_, err := env.uc.BatchDelete(ctx, BatchRequest{DataType: domain.RawDataTypeScheduled, Operator: "bob"})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)

	_, err = env.uc.BatchArchive(ctx, BatchRequest{DataIDs: []string{"s1"}, DataType: "hourly", Operator: "bob"})
	assert.ErrorIs(t, err, domain.ErrInvalidDataType)

	_, err = env.uc.BatchArchive(ctx, BatchRequest{DataIDs: []string{"s1"}, DataType: domain.RawDataTypeScheduled})
	assert.ErrorIs(t, err, domain.ErrInvalidOperator)
	assert.Equal(t, 0, env.tx.calls)
}

func TestDataSourceUsecase_BatchDelete_DataSourceScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ds := env.create(t)
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"))
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "i1", domain.RawDataTypeInstant, "bob"))

	result, err := env.uc.BatchDelete(ctx, BatchRequest{
		DataSourceID: ds.ID,
		DataIDs:      []string{"s1", "ghost"},
		DataType:     domain.RawDataTypeScheduled,
		Operator:     "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []string{"ghost"}, result.FailedIDs)

	got, err := env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalRawDataCount)
	assert.Equal(t, domain.SourceTypeInstant, got.SourceType)
	assert.Equal(t, domain.RawRecordStatusDeleted, env.raw.status(domain.RawDataTypeScheduled, "s1"))
	assert.Equal(t, EventRawDataBatchDeleted, env.publisher.types()[len(env.publisher.events)-1])
}

func TestDataSourceUsecase_BatchDelete_ConfirmedSource(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ds := env.create(t)
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"))
	require.NoError(t, env.uc.Confirm(ctx, ds.ID, "carol"))

	result, err := env.uc.BatchDelete(ctx, BatchRequest{
		DataSourceID: ds.ID,
		DataIDs:      []string{"s1"},
		DataType:     domain.RawDataTypeScheduled,
		Operator:     "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, []string{"s1"}, result.FailedIDs)
	assert.Equal(t, domain.RawRecordStatusCompleted, env.raw.status(domain.RawDataTypeScheduled, "s1"))
}

func TestDataSourceUsecase_BatchArchive_DataSourceScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ds := env.create(t)
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"))
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "i1", domain.RawDataTypeInstant, "bob"))

	result, err := env.uc.BatchArchive(ctx, BatchRequest{
		DataSourceID: ds.ID,
		DataIDs:      []string{"s1", "i1"},
		DataType:     domain.RawDataTypeScheduled,
		Operator:     "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, []string{"i1"}, result.FailedIDs)

	// 引用保留，记录标记为留存
	got, err := env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalRawDataCount)
	assert.Equal(t, domain.RawRecordStatusArchived, env.raw.status(domain.RawDataTypeScheduled, "s1"))
	assert.Equal(t, domain.RawRecordStatusProcessing, env.raw.status(domain.RawDataTypeInstant, "i1"))
}

func TestDataSourceUsecase_BatchRecordScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	result, err := env.uc.BatchArchive(ctx, BatchRequest{
		DataIDs:  []string{"s1", "s2", "missing"},
		DataType: domain.RawDataTypeScheduled,
		Operator: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []string{"missing"}, result.FailedIDs)
	assert.ErrorIs(t, result.Failures["missing"], domain.ErrNotFound)
	assert.Equal(t, domain.RawRecordStatusArchived, env.raw.status(domain.RawDataTypeScheduled, "s1"))

	result, err = env.uc.BatchDelete(ctx, BatchRequest{
		DataIDs:  []string{"i1", "x"},
		DataType: domain.RawDataTypeInstant,
		Operator: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, []string{"x"}, result.FailedIDs)
	assert.Equal(t, domain.RawRecordStatusDeleted, env.raw.status(domain.RawDataTypeInstant, "i1"))

	last := env.publisher.events[len(env.publisher.events)-1]
	assert.Equal(t, EventRawDataBatchDeleted, last.Type)
	assert.Equal(t, "instant", last.AggregateID)
}

func TestDataSourceUsecase_BatchUnknownDataSource(t *testing.T) {
	env := newTestEnv()

	_, err := env.uc.BatchArchive(context.Background(), BatchRequest{
		DataSourceID: "missing",
		DataIDs:      []string{"s1"},
		DataType:     domain.RawDataTypeScheduled,
		Operator:     "bob",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDataSourceUsecase_BatchDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ds := env.create(t)
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"))
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s2", domain.RawDataTypeScheduled, "bob"))

	// 数据源范围：重复ID只处理一次
	result, err := env.uc.BatchDelete(ctx, BatchRequest{
		DataSourceID: ds.ID,
		DataIDs:      []string{"s1", "s1"},
		DataType:     domain.RawDataTypeScheduled,
		Operator:     "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Equal(t, []string{"s1"}, result.SucceededIDs)
	assert.Empty(t, result.FailedIDs)

	result, err = env.uc.BatchArchive(ctx, BatchRequest{
		DataSourceID: ds.ID,
		DataIDs:      []string{"s2", "s2", "ghost", "ghost"},
		DataType:     domain.RawDataTypeScheduled,
		Operator:     "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, result.SucceededIDs)
	assert.Equal(t, []string{"ghost"}, result.FailedIDs)

	// 记录范围
	result, err = env.uc.BatchArchive(ctx, BatchRequest{
		DataIDs:  []string{"i9", "i9", "i1", "i1"},
		DataType: domain.RawDataTypeInstant,
		Operator: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, result.SucceededIDs)
	assert.Equal(t, []string{"i9"}, result.FailedIDs)
	assert.Equal(t, 2, result.Total())
}

func TestDataSourceUsecase_BatchDelete_AllFailedLeavesSourceUntouched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	ds := env.create(t)
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"))
	require.NoError(t, env.uc.Confirm(ctx, ds.ID, "carol"))

	before, err := env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	events := len(env.publisher.events)
	invalidations := len(env.cache.deleted)

	result, err := env.uc.BatchDelete(ctx, BatchRequest{
		DataSourceID: ds.ID,
		DataIDs:      []string{"s1"},
		DataType:     domain.RawDataTypeScheduled,
		Operator:     "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)

	after, err := env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Revision, after.Revision)
	assert.Len(t, env.publisher.events, events)
	assert.Len(t, env.cache.deleted, invalidations)
}
