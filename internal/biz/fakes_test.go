package biz

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"datacuration/internal/domain"
)

func cloneDataSource(ds *domain.DataSource) *domain.DataSource {
	c := *ds
	c.RawDataRefs = append([]domain.RawDataReference(nil), ds.RawDataRefs...)
	c.Tags = append([]string(nil), ds.Tags...)
	c.CustomTags = append([]string(nil), ds.CustomTags...)
	return &c
}

// fakeDataSourceRepo 内存数据源仓储，按版本号做乐观锁
type fakeDataSourceRepo struct {
	mu    sync.Mutex
	items map[string]*domain.DataSource

	UpdateFunc func(ctx context.Context, ds *domain.DataSource) error
}

func newFakeDataSourceRepo() *fakeDataSourceRepo {
	return &fakeDataSourceRepo{items: make(map[string]*domain.DataSource)}
}

func (r *fakeDataSourceRepo) Create(ctx context.Context, ds *domain.DataSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds.Revision = 1
	r.items[ds.ID] = cloneDataSource(ds)
	return nil
}

func (r *fakeDataSourceRepo) GetByID(ctx context.Context, id string) (*domain.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.items[id]
	if !ok {
		return nil, domain.ErrDataSourceNotFound
	}
	return cloneDataSource(ds), nil
}

func (r *fakeDataSourceRepo) Update(ctx context.Context, ds *domain.DataSource) error {
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, ds)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[ds.ID]
	if !ok {
		return domain.ErrDataSourceNotFound
	}
	if stored.Revision != ds.Revision {
		return domain.ErrDataSourceConflict
	}
	ds.Revision++
	r.items[ds.ID] = cloneDataSource(ds)
	return nil
}

func (r *fakeDataSourceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrDataSourceNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeDataSourceRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.DataSource, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DataSource
	for _, ds := range r.items {
		if filter.CreatedBy != "" && ds.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Status != "" && ds.Status != filter.Status {
			continue
		}
		out = append(out, cloneDataSource(ds))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if filter.Skip >= len(out) {
		return []*domain.DataSource{}, total, nil
	}
	out = out[filter.Skip:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

// fakeRawRecordRepo 内存原始数据仓储
type fakeRawRecordRepo struct {
	mu      sync.Mutex
	records map[string]*domain.RawRecord
}

func newFakeRawRecordRepo() *fakeRawRecordRepo {
	return &fakeRawRecordRepo{records: make(map[string]*domain.RawRecord)}
}

func rawKey(t domain.RawDataType, id string) string {
	return fmt.Sprintf("%s/%s", t, id)
}

func (r *fakeRawRecordRepo) put(rec *domain.RawRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rawKey(rec.Type, rec.ID)] = rec
}

func (r *fakeRawRecordRepo) status(t domain.RawDataType, id string) domain.RawRecordStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[rawKey(t, id)].Status
}

func (r *fakeRawRecordRepo) GetByID(ctx context.Context, dataType domain.RawDataType, id string) (*domain.RawRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[rawKey(dataType, id)]
	if !ok {
		return nil, domain.ErrRawRecordNotFound
	}
	c := *rec
	return &c, nil
}

func (r *fakeRawRecordRepo) UpdateStatus(ctx context.Context, dataType domain.RawDataType, id string, status domain.RawRecordStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[rawKey(dataType, id)]
	if !ok {
		return domain.ErrRawRecordNotFound
	}
	rec.Status = status
	return nil
}

func (r *fakeRawRecordRepo) BatchUpdateStatus(ctx context.Context, dataType domain.RawDataType, ids []string, status domain.RawRecordStatus) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, ok := r.records[rawKey(dataType, id)]
		if !ok {
			continue
		}
		rec.Status = status
		updated = append(updated, id)
	}
	return updated, nil
}

// fakeTx 直接执行函数
type fakeTx struct {
	calls int
}

func (t *fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// MockCache 模拟缓存
type MockCache struct {
	GetFunc    func(ctx context.Context, id string) (*domain.DataSource, error)
	SetFunc    func(ctx context.Context, ds *domain.DataSource) error
	DeleteFunc func(ctx context.Context, id string) error

	deleted []string
}

func (m *MockCache) Get(ctx context.Context, id string) (*domain.DataSource, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockCache) Set(ctx context.Context, ds *domain.DataSource) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, ds)
	}
	return nil
}

func (m *MockCache) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type publishedEvent struct {
	Type        string
	AggregateID string
	Payload     map[string]interface{}
}

// MockPublisher 模拟事件发布器
type MockPublisher struct {
	PublishFunc func(ctx context.Context, eventType, aggregateID string, payload map[string]interface{}) error

	events []publishedEvent
}

func (m *MockPublisher) Publish(ctx context.Context, eventType, aggregateID string, payload map[string]interface{}) error {
	m.events = append(m.events, publishedEvent{Type: eventType, AggregateID: aggregateID, Payload: payload})
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, eventType, aggregateID, payload)
	}
	return nil
}

func (m *MockPublisher) types() []string {
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

// seqIDGenerator 顺序ID生成器
type seqIDGenerator struct {
	n int
}

func (g *seqIDGenerator) NewID() string {
	g.n++
	return fmt.Sprintf("ds-%d", g.n)
}
