package biz

import (
	"context"
	"time"

	"datacuration/internal/domain"
	"datacuration/pkg/monitoring"
	"datacuration/pkg/observability"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "datacuration/biz"

// 领域事件类型
const (
	EventDataSourceCreated        = "data_source.created"
	EventDataSourceInfoUpdated    = "data_source.info_updated"
	EventDataSourceContentUpdated = "data_source.content_updated"
	EventDataSourceRawDataAdded   = "data_source.raw_data_added"
	EventDataSourceRawDataRemoved = "data_source.raw_data_removed"
	EventDataSourceConfirmed      = "data_source.confirmed"
	EventDataSourceReverted       = "data_source.reverted"
	EventDataSourceDeleted        = "data_source.deleted"
	EventRawDataBatchArchived     = "raw_data.batch_archived"
	EventRawDataBatchDeleted      = "raw_data.batch_deleted"
)

// Transaction 事务管理接口，fn 内的仓储调用共享同一事务
type Transaction interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DataSourceCache 数据源读缓存，未命中时返回 nil, nil
type DataSourceCache interface {
	Get(ctx context.Context, id string) (*domain.DataSource, error)
	Set(ctx context.Context, ds *domain.DataSource) error
	Delete(ctx context.Context, id string) error
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, eventType, aggregateID string, payload map[string]interface{}) error
}

// DataSourceUsecase 数据源用例
type DataSourceUsecase struct {
	repo      domain.DataSourceRepository
	rawRepo   domain.RawRecordRepository
	tx        Transaction
	cache     DataSourceCache
	publisher EventPublisher
	idGen     domain.IDGenerator
	log       *log.Helper
}

// NewDataSourceUsecase 创建数据源用例
func NewDataSourceUsecase(
	repo domain.DataSourceRepository,
	rawRepo domain.RawRecordRepository,
	tx Transaction,
	cache DataSourceCache,
	publisher EventPublisher,
	idGen domain.IDGenerator,
	logger log.Logger,
) *DataSourceUsecase {
	return &DataSourceUsecase{
		repo:      repo,
		rawRepo:   rawRepo,
		tx:        tx,
		cache:     cache,
		publisher: publisher,
		idGen:     idGen,
		log:       log.NewHelper(log.With(logger, "module", "biz/datasource")),
	}
}

// Create 创建数据源
func (uc *DataSourceUsecase) Create(ctx context.Context, params domain.CreateParams) (ds *domain.DataSource, err error) {
	ctx, done := uc.observe(ctx, "create", "", params.CreatedBy)
	defer func() { done(err) }()

	ds, err = domain.NewDataSource(uc.idGen.NewID(), params)
	if err != nil {
		return nil, err
	}

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		return uc.repo.Create(ctx, ds)
	})
	if err != nil {
		uc.log.WithContext(ctx).Errorf("failed to create data source: %v", err)
		return nil, err
	}

	uc.log.WithContext(ctx).Infof("data source created: id=%s created_by=%s", ds.ID, ds.CreatedBy)
	uc.publish(ctx, EventDataSourceCreated, ds.ID, map[string]interface{}{
		"title":      ds.Title,
		"created_by": ds.CreatedBy,
	})
	return ds, nil
}

// Get 获取数据源（读缓存）
func (uc *DataSourceUsecase) Get(ctx context.Context, id string) (ds *domain.DataSource, err error) {
	ctx, done := uc.observe(ctx, "get", id, "")
	defer func() { done(err) }()

	if cached, cerr := uc.cache.Get(ctx, id); cerr != nil {
		uc.log.WithContext(ctx).Warnf("failed to read data source cache: id=%s err=%v", id, cerr)
	} else if cached != nil {
		return cached, nil
	}

	ds, err = uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cerr := uc.cache.Set(ctx, ds); cerr != nil {
		uc.log.WithContext(ctx).Warnf("failed to write data source cache: id=%s err=%v", id, cerr)
	}
	return ds, nil
}

// List 分页查询数据源
func (uc *DataSourceUsecase) List(ctx context.Context, filter domain.ListFilter) (items []*domain.DataSource, total int64, err error) {
	ctx, done := uc.observe(ctx, "list", "", "")
	defer func() { done(err) }()

	if err = filter.Validate(); err != nil {
		return nil, 0, err
	}
	return uc.repo.List(ctx, filter)
}

// UpdateInfo 更新基础信息
func (uc *DataSourceUsecase) UpdateInfo(ctx context.Context, id string, update domain.InfoUpdate, updatedBy string) (err error) {
	ctx, done := uc.observe(ctx, "update_info", id, updatedBy)
	defer func() { done(err) }()

	if _, err = uc.mutate(ctx, id, func(ctx context.Context, ds *domain.DataSource) error {
		return ds.UpdateInfo(update, updatedBy)
	}); err != nil {
		return err
	}

	uc.publish(ctx, EventDataSourceInfoUpdated, id, map[string]interface{}{"updated_by": updatedBy})
	return nil
}

// UpdateContent 更新编辑内容
func (uc *DataSourceUsecase) UpdateContent(ctx context.Context, id, content, updatedBy string) (err error) {
	ctx, done := uc.observe(ctx, "update_content", id, updatedBy)
	defer func() { done(err) }()

	ds, err := uc.mutate(ctx, id, func(ctx context.Context, ds *domain.DataSource) error {
		return ds.UpdateContent(content, updatedBy)
	})
	if err != nil {
		return err
	}

	uc.publish(ctx, EventDataSourceContentUpdated, id, map[string]interface{}{
		"updated_by":      updatedBy,
		"content_version": ds.ContentVersion,
	})
	return nil
}

// Delete 删除数据源；草稿中的原始数据恢复为留存状态，已确定的保持完成状态
func (uc *DataSourceUsecase) Delete(ctx context.Context, id, deletedBy string) (err error) {
	ctx, done := uc.observe(ctx, "delete", id, deletedBy)
	defer func() { done(err) }()

	if deletedBy == "" {
		return domain.ErrInvalidOperator
	}

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		ds, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !ds.IsConfirmed() {
			if err := uc.syncRefs(ctx, ds.RawDataRefs, domain.RawRecordStatusArchived); err != nil {
				return err
			}
		}
		return uc.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	uc.invalidate(ctx, id)
	uc.log.WithContext(ctx).Infof("data source deleted: id=%s deleted_by=%s", id, deletedBy)
	uc.publish(ctx, EventDataSourceDeleted, id, map[string]interface{}{"deleted_by": deletedBy})
	return nil
}

// AddRawData 添加原始数据，快照取自原始记录，记录转为处理中
func (uc *DataSourceUsecase) AddRawData(ctx context.Context, id, dataID string, dataType domain.RawDataType, addedBy string) (err error) {
	ctx, done := uc.observe(ctx, "add_raw_data", id, addedBy)
	defer func() { done(err) }()

	if dataID == "" {
		return domain.ErrInvalidDataID
	}
	if !dataType.IsValid() {
		return domain.ErrInvalidDataType
	}

	if _, err = uc.mutate(ctx, id, func(ctx context.Context, ds *domain.DataSource) error {
		if !ds.CanEdit() {
			return domain.ErrNotDraft
		}
		if ds.HasRawData(dataID, dataType) {
			return domain.ErrRawDataAlreadyAttached
		}

		record, err := uc.rawRepo.GetByID(ctx, dataType, dataID)
		if err != nil {
			return err
		}
		if !record.CanBeAdded() {
			return domain.ErrRawRecordUnavailable
		}

		if err := ds.AddRawData(dataID, dataType, record.Title, record.URL, record.SnapshotSnippet(), addedBy); err != nil {
			return err
		}
		return uc.rawRepo.UpdateStatus(ctx, dataType, dataID, domain.RawRecordStatusProcessing)
	}); err != nil {
		return err
	}

	uc.publish(ctx, EventDataSourceRawDataAdded, id, map[string]interface{}{
		"data_id":   dataID,
		"data_type": string(dataType),
		"added_by":  addedBy,
	})
	return nil
}

// RemoveRawData 移除原始数据，记录转为留存状态
func (uc *DataSourceUsecase) RemoveRawData(ctx context.Context, id, dataID string, dataType domain.RawDataType, removedBy string) (err error) {
	ctx, done := uc.observe(ctx, "remove_raw_data", id, removedBy)
	defer func() { done(err) }()

	if !dataType.IsValid() {
		return domain.ErrInvalidDataType
	}

	if _, err = uc.mutate(ctx, id, func(ctx context.Context, ds *domain.DataSource) error {
		if err := ds.RemoveRawData(dataID, dataType, removedBy); err != nil {
			return err
		}
		return uc.syncStatus(ctx, dataType, []string{dataID}, domain.RawRecordStatusArchived)
	}); err != nil {
		return err
	}

	uc.publish(ctx, EventDataSourceRawDataRemoved, id, map[string]interface{}{
		"data_id":    dataID,
		"data_type":  string(dataType),
		"removed_by": removedBy,
	})
	return nil
}

// Confirm 确定数据源，引用的原始数据标记为已完成
func (uc *DataSourceUsecase) Confirm(ctx context.Context, id, confirmedBy string) (err error) {
	ctx, done := uc.observe(ctx, "confirm", id, confirmedBy)
	defer func() { done(err) }()

	ds, err := uc.mutate(ctx, id, func(ctx context.Context, ds *domain.DataSource) error {
		if err := ds.Confirm(confirmedBy); err != nil {
			return err
		}
		return uc.syncRefs(ctx, ds.RawDataRefs, domain.RawRecordStatusCompleted)
	})
	if err != nil {
		return err
	}

	uc.log.WithContext(ctx).Infof("data source confirmed: id=%s confirmed_by=%s raw_data=%d", id, confirmedBy, ds.TotalRawDataCount)
	uc.publish(ctx, EventDataSourceConfirmed, id, map[string]interface{}{
		"confirmed_by":   confirmedBy,
		"total_raw_data": ds.TotalRawDataCount,
	})
	return nil
}

// RevertToDraft 恢复为草稿，引用的原始数据恢复为处理中
func (uc *DataSourceUsecase) RevertToDraft(ctx context.Context, id, revertedBy string) (err error) {
	ctx, done := uc.observe(ctx, "revert", id, revertedBy)
	defer func() { done(err) }()

	if _, err = uc.mutate(ctx, id, func(ctx context.Context, ds *domain.DataSource) error {
		if err := ds.RevertToDraft(revertedBy); err != nil {
			return err
		}
		return uc.syncRefs(ctx, ds.RawDataRefs, domain.RawRecordStatusProcessing)
	}); err != nil {
		return err
	}

	uc.log.WithContext(ctx).Infof("data source reverted to draft: id=%s reverted_by=%s", id, revertedBy)
	uc.publish(ctx, EventDataSourceReverted, id, map[string]interface{}{"reverted_by": revertedBy})
	return nil
}

// mutate 在事务内加载、修改并按版本号保存数据源，成功后清除缓存
func (uc *DataSourceUsecase) mutate(ctx context.Context, id string, fn func(ctx context.Context, ds *domain.DataSource) error) (*domain.DataSource, error) {
	var ds *domain.DataSource
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		ds, err = uc.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, ds); err != nil {
			return err
		}
		return uc.repo.Update(ctx, ds)
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, id)
	return ds, nil
}

// syncRefs 按类型分组同步引用的原始数据状态
func (uc *DataSourceUsecase) syncRefs(ctx context.Context, refs []domain.RawDataReference, status domain.RawRecordStatus) error {
	byType := make(map[domain.RawDataType][]string, 2)
	for _, ref := range refs {
		byType[ref.DataType] = append(byType[ref.DataType], ref.DataID)
	}
	for _, dataType := range []domain.RawDataType{domain.RawDataTypeScheduled, domain.RawDataTypeInstant} {
		if err := uc.syncStatus(ctx, dataType, byType[dataType], status); err != nil {
			return err
		}
	}
	return nil
}

// syncStatus 更新原始数据状态，记录已不存在时只记日志
func (uc *DataSourceUsecase) syncStatus(ctx context.Context, dataType domain.RawDataType, ids []string, status domain.RawRecordStatus) error {
	if len(ids) == 0 {
		return nil
	}
	updated, err := uc.rawRepo.BatchUpdateStatus(ctx, dataType, ids, status)
	if err != nil {
		return err
	}
	if len(updated) != len(ids) {
		uc.log.WithContext(ctx).Warnf("raw records missing during status sync: type=%s status=%s requested=%d updated=%d",
			dataType, status, len(ids), len(updated))
	}
	return nil
}

func (uc *DataSourceUsecase) invalidate(ctx context.Context, id string) {
	if err := uc.cache.Delete(ctx, id); err != nil {
		uc.log.WithContext(ctx).Warnf("failed to invalidate data source cache: id=%s err=%v", id, err)
	}
}

func (uc *DataSourceUsecase) publish(ctx context.Context, eventType, aggregateID string, payload map[string]interface{}) {
	if err := uc.publisher.Publish(ctx, eventType, aggregateID, payload); err != nil {
		uc.log.WithContext(ctx).Errorf("failed to publish event: type=%s aggregate=%s err=%v", eventType, aggregateID, err)
	}
}

// observe 为一次操作开启 span 并在结束时记录指标
func (uc *DataSourceUsecase) observe(ctx context.Context, operation, id, operator string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, tracerName, "DataSource."+operation,
		trace.WithAttributes(observability.DataSourceAttributes(id, operator)...))
	return ctx, func(err error) {
		observability.RecordError(span, err)
		span.End()
		monitoring.ObserveOperation(operation, start, err)
	}
}
