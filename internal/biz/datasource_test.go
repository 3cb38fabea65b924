package biz

import (
	"context"
	"errors"
	"testing"

	"datacuration/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	uc        *DataSourceUsecase
	repo      *fakeDataSourceRepo
	raw       *fakeRawRecordRepo
	tx        *fakeTx
	cache     *MockCache
	publisher *MockPublisher
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:      newFakeDataSourceRepo(),
		raw:       newFakeRawRecordRepo(),
		tx:        &fakeTx{},
		cache:     &MockCache{},
		publisher: &MockPublisher{},
	}
	env.uc = NewDataSourceUsecase(env.repo, env.raw, env.tx, env.cache, env.publisher, &seqIDGenerator{}, log.DefaultLogger)

	env.raw.put(&domain.RawRecord{ID: "s1", Type: domain.RawDataTypeScheduled, Title: "Scheduled 1", URL: "http://s1", Snippet: "snippet s1", Status: domain.RawRecordStatusPending})
	env.raw.put(&domain.RawRecord{ID: "s2", Type: domain.RawDataTypeScheduled, Title: "Scheduled 2", Content: "full body of s2", Status: domain.RawRecordStatusArchived})
	env.raw.put(&domain.RawRecord{ID: "i1", Type: domain.RawDataTypeInstant, Title: "Instant 1", URL: "http://i1", Status: domain.RawRecordStatusPending})
	env.raw.put(&domain.RawRecord{ID: "busy", Type: domain.RawDataTypeInstant, Status: domain.RawRecordStatusProcessing})
	return env
}

func (env *testEnv) create(t *testing.T) *domain.DataSource {
	t.Helper()
	ds, err := env.uc.Create(context.Background(), domain.CreateParams{Title: "Weekly digest", CreatedBy: "alice"})
	require.NoError(t, err)
	return ds
}

func TestDataSourceUsecase_Create(t *testing.T) {
	env := newTestEnv()

	ds := env.create(t)
	assert.Equal(t, "ds-1", ds.ID)
	assert.Equal(t, domain.DataSourceStatusDraft, ds.Status)
	assert.Equal(t, []string{EventDataSourceCreated}, env.publisher.types())
	assert.Equal(t, "ds-1", env.publisher.events[0].AggregateID)

	_, err := env.uc.Create(context.Background(), domain.CreateParams{Title: "", CreatedBy: "alice"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, env.publisher.events, 1)
}

func TestDataSourceUsecase_Get(t *testing.T) {
	env := newTestEnv()
	created := env.create(t)

	t.Run("cache miss reads repository and fills cache", func(t *testing.T) {
		var cached *domain.DataSource
		env.cache.SetFunc = func(ctx context.Context, ds *domain.DataSource) error {
			cached = ds
			return nil
		}
		ds, err := env.uc.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, ds.ID)
		require.NotNil(t, cached)
		assert.Equal(t, created.ID, cached.ID)
	})

	t.Run("cache hit", func(t *testing.T) {
		env.cache.GetFunc = func(ctx context.Context, id string) (*domain.DataSource, error) {
			return &domain.DataSource{ID: id, Title: "from cache"}, nil
		}
		defer func() { env.cache.GetFunc = nil }()

		ds, err := env.uc.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "from cache", ds.Title)
	})

	t.Run("cache errors do not fail the call", func(t *testing.T) {
		env.cache.GetFunc = func(ctx context.Context, id string) (*domain.DataSource, error) {
			return nil, errors.New("redis down")
		}
		env.cache.SetFunc = func(ctx context.Context, ds *domain.DataSource) error {
			return errors.New("redis down")
		}
		defer func() { env.cache.GetFunc, env.cache.SetFunc = nil, nil }()

		ds, err := env.uc.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Weekly digest", ds.Title)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := env.uc.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDataSourceUsecase_List(t *testing.T) {
	env := newTestEnv()
	env.create(t)
	env.create(t)

	items, total, err := env.uc.List(context.Background(), domain.ListFilter{CreatedBy: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	_, _, err = env.uc.List(context.Background(), domain.ListFilter{Limit: 500})
	assert.ErrorIs(t, err, domain.ErrInvalidListLimit)
}

func TestDataSourceUsecase_AddRawData(t *testing.T) {
	env := newTestEnv()
	ds := env.create(t)
	ctx := context.Background()

	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"))
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s2", domain.RawDataTypeScheduled, "bob"))

	got, err := env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	require.Len(t, got.RawDataRefs, 2)
	assert.Equal(t, "Scheduled 1", got.RawDataRefs[0].Title)
	assert.Equal(t, "http://s1", got.RawDataRefs[0].URL)
	assert.Equal(t, "snippet s1", got.RawDataRefs[0].Snippet)
	assert.Equal(t, "full body of s2", got.RawDataRefs[1].Snippet)
	assert.Equal(t, domain.SourceTypeScheduled, got.SourceType)
	assert.Equal(t, domain.RawRecordStatusProcessing, env.raw.status(domain.RawDataTypeScheduled, "s1"))
	assert.Equal(t, domain.RawRecordStatusProcessing, env.raw.status(domain.RawDataTypeScheduled, "s2"))
	assert.Contains(t, env.cache.deleted, ds.ID)

	t.Run("duplicate", func(t *testing.T) {
		err := env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob")
		assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	})

	t.Run("unknown record", func(t *testing.T) {
		err := env.uc.AddRawData(ctx, ds.ID, "nope", domain.RawDataTypeInstant, "bob")
		assert.ErrorIs(t, err, domain.ErrRawRecordNotFound)
	})

	t.Run("record already in use", func(t *testing.T) {
		err := env.uc.AddRawData(ctx, ds.ID, "busy", domain.RawDataTypeInstant, "bob")
		assert.ErrorIs(t, err, domain.ErrPrecondition)
	})

	t.Run("invalid type", func(t *testing.T) {
		err := env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataType("daily"), "bob")
		assert.ErrorIs(t, err, domain.ErrInvalidDataType)
	})

	t.Run("unknown data source", func(t *testing.T) {
		err := env.uc.AddRawData(ctx, "missing", "i1", domain.RawDataTypeInstant, "bob")
		assert.ErrorIs(t, err, domain.ErrDataSourceNotFound)
	})

	got, err = env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalRawDataCount)
}

func TestDataSourceUsecase_RemoveRawData(t *testing.T) {
	env := newTestEnv()
	ds := env.create(t)
	ctx := context.Background()
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "i1", domain.RawDataTypeInstant, "bob"))

	require.NoError(t, env.uc.RemoveRawData(ctx, ds.ID, "i1", domain.RawDataTypeInstant, "bob"))
	assert.Equal(t, domain.RawRecordStatusArchived, env.raw.status(domain.RawDataTypeInstant, "i1"))

	// 重复移除始终失败
	for i := 0; i < 2; i++ {
		err := env.uc.RemoveRawData(ctx, ds.ID, "i1", domain.RawDataTypeInstant, "bob")
		assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	}

	got, err := env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalRawDataCount)
	assert.Equal(t, domain.SourceTypeNone, got.SourceType)
}

func TestDataSourceUsecase_ConfirmAndRevert(t *testing.T) {
	env := newTestEnv()
	ds := env.create(t)
	ctx := context.Background()

	err := env.uc.Confirm(ctx, ds.ID, "carol")
	assert.ErrorIs(t, err, domain.ErrPrecondition)

	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"))
	require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "i1", domain.RawDataTypeInstant, "bob"))
	require.NoError(t, env.uc.UpdateContent(ctx, ds.ID, "# notes", "bob"))
	require.NoError(t, env.uc.Confirm(ctx, ds.ID, "carol"))

	got, err := env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DataSourceStatusConfirmed, got.Status)
	assert.Equal(t, domain.SourceTypeMixed, got.SourceType)
	assert.Equal(t, domain.RawRecordStatusCompleted, env.raw.status(domain.RawDataTypeScheduled, "s1"))
	assert.Equal(t, domain.RawRecordStatusCompleted, env.raw.status(domain.RawDataTypeInstant, "i1"))

	assert.ErrorIs(t, env.uc.UpdateContent(ctx, ds.ID, "edit", "bob"), domain.ErrInvalidState)
	assert.ErrorIs(t, env.uc.RemoveRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"), domain.ErrInvalidState)
	assert.ErrorIs(t, env.uc.Confirm(ctx, ds.ID, "carol"), domain.ErrInvalidState)

	require.NoError(t, env.uc.RevertToDraft(ctx, ds.ID, "carol"))
	got, err = env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DataSourceStatusDraft, got.Status)
	assert.Nil(t, got.ConfirmedBy)
	assert.Equal(t, domain.RawRecordStatusProcessing, env.raw.status(domain.RawDataTypeScheduled, "s1"))

	assert.ErrorIs(t, env.uc.RevertToDraft(ctx, ds.ID, "carol"), domain.ErrInvalidState)

	assert.Equal(t, []string{
		EventDataSourceCreated,
		EventDataSourceRawDataAdded,
		EventDataSourceRawDataAdded,
		EventDataSourceContentUpdated,
		EventDataSourceConfirmed,
		EventDataSourceReverted,
	}, env.publisher.types())
}

func TestDataSourceUsecase_UpdateInfo(t *testing.T) {
	env := newTestEnv()
	ds := env.create(t)
	ctx := context.Background()
	title := "Renamed"

	require.NoError(t, env.uc.UpdateInfo(ctx, ds.ID, domain.InfoUpdate{Title: &title, Tags: []string{"a", "a"}}, "bob"))
	got, err := env.repo.GetByID(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []string{"a"}, got.Tags)
	assert.Equal(t, "bob", got.UpdatedBy)
}

func TestDataSourceUsecase_ConcurrentModification(t *testing.T) {
	env := newTestEnv()
	ds := env.create(t)

	env.repo.UpdateFunc = func(ctx context.Context, ds *domain.DataSource) error {
		return domain.ErrDataSourceConflict
	}

	err := env.uc.UpdateContent(context.Background(), ds.ID, "lost", "bob")
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Len(t, env.publisher.events, 1)
}

func TestDataSourceUsecase_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("draft releases raw data", func(t *testing.T) {
		env := newTestEnv()
		ds := env.create(t)
		require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"))

		require.NoError(t, env.uc.Delete(ctx, ds.ID, "alice"))
		assert.Equal(t, domain.RawRecordStatusArchived, env.raw.status(domain.RawDataTypeScheduled, "s1"))
		_, err := env.repo.GetByID(ctx, ds.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, env.cache.deleted, ds.ID)
		assert.Equal(t, EventDataSourceDeleted, env.publisher.types()[len(env.publisher.events)-1])
	})

	t.Run("confirmed keeps raw data completed", func(t *testing.T) {
		env := newTestEnv()
		ds := env.create(t)
		require.NoError(t, env.uc.AddRawData(ctx, ds.ID, "s1", domain.RawDataTypeScheduled, "bob"))
		require.NoError(t, env.uc.Confirm(ctx, ds.ID, "carol"))

		require.NoError(t, env.uc.Delete(ctx, ds.ID, "alice"))
		assert.Equal(t, domain.RawRecordStatusCompleted, env.raw.status(domain.RawDataTypeScheduled, "s1"))
	})

	t.Run("requires operator", func(t *testing.T) {
		env := newTestEnv()
		ds := env.create(t)
		assert.ErrorIs(t, env.uc.Delete(ctx, ds.ID, ""), domain.ErrValidation)
	})

	t.Run("unknown id", func(t *testing.T) {
		env := newTestEnv()
		assert.ErrorIs(t, env.uc.Delete(ctx, "missing", "alice"), domain.ErrNotFound)
	})
}

func TestDataSourceUsecase_PublishFailureIsNotReturned(t *testing.T) {
	env := newTestEnv()
	env.publisher.PublishFunc = func(ctx context.Context, eventType, aggregateID string, payload map[string]interface{}) error {
		return errors.New("kafka unavailable")
	}

	_, err := env.uc.Create(context.Background(), domain.CreateParams{Title: "t", CreatedBy: "alice"})
	assert.NoError(t, err)
}
