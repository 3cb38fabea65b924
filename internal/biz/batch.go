package biz

import (
	"context"
	"strings"

	"datacuration/internal/domain"
	"datacuration/pkg/monitoring"
)

// BatchRequest 批量留存/删除请求。DataSourceID 为空时直接作用于原始数据记录
type BatchRequest struct {
	DataSourceID string
	DataIDs      []string
	DataType     domain.RawDataType
	Operator     string
}

// validate 校验请求并去除重复ID，保证每个ID只计一次结果
func (r *BatchRequest) validate() error {
	if len(r.DataIDs) == 0 {
		return domain.ErrEmptyBatch
	}
	r.DataIDs = domain.UniqueIDs(r.DataIDs)
	if !r.DataType.IsValid() {
		return domain.ErrInvalidDataType
	}
	if strings.TrimSpace(r.Operator) == "" {
		return domain.ErrInvalidOperator
	}
	return nil
}

// BatchArchive 批量留存原始数据
func (uc *DataSourceUsecase) BatchArchive(ctx context.Context, req BatchRequest) (result *domain.BatchResult, err error) {
	ctx, done := uc.observe(ctx, "batch_archive", req.DataSourceID, req.Operator)
	defer func() { done(err) }()

	if err = req.validate(); err != nil {
		return nil, err
	}

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if req.DataSourceID == "" {
			result, err = uc.batchUpdateRecords(ctx, req, domain.RawRecordStatusArchived)
			return err
		}

		ds, err := uc.repo.GetByID(ctx, req.DataSourceID)
		if err != nil {
			return err
		}
		result, err = ds.BatchArchiveRawData(req.DataIDs, req.DataType)
		if err != nil {
			return err
		}
		return uc.syncStatus(ctx, req.DataType, result.SucceededIDs, domain.RawRecordStatusArchived)
	})
	if err != nil {
		return nil, err
	}

	uc.finishBatch(ctx, "batch_archive", EventRawDataBatchArchived, req, result)
	return result, nil
}

// BatchDelete 批量删除原始数据；指定数据源时同时移除引用
func (uc *DataSourceUsecase) BatchDelete(ctx context.Context, req BatchRequest) (result *domain.BatchResult, err error) {
	ctx, done := uc.observe(ctx, "batch_delete", req.DataSourceID, req.Operator)
	defer func() { done(err) }()

	if err = req.validate(); err != nil {
		return nil, err
	}

	if req.DataSourceID == "" {
		err = uc.tx.InTx(ctx, func(ctx context.Context) error {
			var err error
			result, err = uc.batchUpdateRecords(ctx, req, domain.RawRecordStatusDeleted)
			return err
		})
		if err != nil {
			return nil, err
		}
	} else {
		err = uc.tx.InTx(ctx, func(ctx context.Context) error {
			ds, err := uc.repo.GetByID(ctx, req.DataSourceID)
			if err != nil {
				return err
			}
			result, err = ds.BatchRemoveRawData(req.DataIDs, req.DataType, req.Operator)
			if err != nil {
				return err
			}
			// 全部失败时数据源未变化，不保存
			if result.SuccessCount == 0 {
				return nil
			}
			if err := uc.syncStatus(ctx, req.DataType, result.SucceededIDs, domain.RawRecordStatusDeleted); err != nil {
				return err
			}
			return uc.repo.Update(ctx, ds)
		})
		if err != nil {
			return nil, err
		}
		if result.SuccessCount > 0 {
			uc.invalidate(ctx, req.DataSourceID)
		}
	}

	uc.finishBatch(ctx, "batch_delete", EventRawDataBatchDeleted, req, result)
	return result, nil
}

// batchUpdateRecords 直接更新原始数据状态，不存在的ID计为失败
func (uc *DataSourceUsecase) batchUpdateRecords(ctx context.Context, req BatchRequest, status domain.RawRecordStatus) (*domain.BatchResult, error) {
	updated, err := uc.rawRepo.BatchUpdateStatus(ctx, req.DataType, req.DataIDs, status)
	if err != nil {
		return nil, err
	}

	ok := make(map[string]struct{}, len(updated))
	for _, id := range updated {
		ok[id] = struct{}{}
	}

	result := domain.NewBatchResult()
	for _, id := range req.DataIDs {
		if _, found := ok[id]; found {
			result.Succeed(id)
			continue
		}
		result.Fail(id, domain.ErrRawRecordNotFound)
	}
	return result, nil
}

func (uc *DataSourceUsecase) finishBatch(ctx context.Context, operation, eventType string, req BatchRequest, result *domain.BatchResult) {
	monitoring.ObserveBatch(operation, result.SuccessCount, result.FailedCount)
	uc.log.WithContext(ctx).Infof("%s finished: data_source=%s type=%s success=%d failed=%d operator=%s",
		operation, req.DataSourceID, req.DataType, result.SuccessCount, result.FailedCount, req.Operator)
	if result.SuccessCount == 0 {
		return
	}

	aggregateID := req.DataSourceID
	if aggregateID == "" {
		aggregateID = string(req.DataType)
	}
	uc.publish(ctx, eventType, aggregateID, map[string]interface{}{
		"data_source_id": req.DataSourceID,
		"data_type":      string(req.DataType),
		"succeeded_ids":  result.SucceededIDs,
		"failed_ids":     result.FailedIDs,
		"operator":       req.Operator,
	})
}
