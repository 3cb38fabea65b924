package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"datacuration/internal/biz"
	"datacuration/internal/domain"
	pkgerrors "datacuration/pkg/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// DataSourceUsecase 数据源用例接口，由 biz.DataSourceUsecase 实现
type DataSourceUsecase interface {
	Create(ctx context.Context, params domain.CreateParams) (*domain.DataSource, error)
	Get(ctx context.Context, id string) (*domain.DataSource, error)
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.DataSource, int64, error)
	UpdateInfo(ctx context.Context, id string, update domain.InfoUpdate, updatedBy string) error
	UpdateContent(ctx context.Context, id, content, updatedBy string) error
	Delete(ctx context.Context, id, deletedBy string) error
	AddRawData(ctx context.Context, id, dataID string, dataType domain.RawDataType, addedBy string) error
	RemoveRawData(ctx context.Context, id, dataID string, dataType domain.RawDataType, removedBy string) error
	Confirm(ctx context.Context, id, confirmedBy string) error
	RevertToDraft(ctx context.Context, id, revertedBy string) error
	BatchArchive(ctx context.Context, req biz.BatchRequest) (*domain.BatchResult, error)
	BatchDelete(ctx context.Context, req biz.BatchRequest) (*domain.BatchResult, error)
}

// DataSourceService 数据源服务，负责请求转换和错误映射
type DataSourceService struct {
	uc  DataSourceUsecase
	log *log.Helper
}

// NewDataSourceService 创建数据源服务
func NewDataSourceService(uc DataSourceUsecase, logger log.Logger) *DataSourceService {
	return &DataSourceService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service/datasource")),
	}
}

// CreateDataSource 创建数据源
func (s *DataSourceService) CreateDataSource(ctx context.Context, req *CreateDataSourceRequest) (*DataSourceResponse, error) {
	ds, err := s.uc.Create(ctx, domain.CreateParams{
		Title:             req.Title,
		Description:       req.Description,
		CreatedBy:         req.CreatedBy,
		Tags:              req.Tags,
		CustomTags:        req.CustomTags,
		PrimaryCategory:   req.PrimaryCategory,
		SecondaryCategory: req.SecondaryCategory,
		TertiaryCategory:  req.TertiaryCategory,
		Metadata:          req.Metadata,
	})
	if err != nil {
		return nil, s.toServiceError(ctx, err)
	}
	return toDataSourceResponse(ds), nil
}

// GetDataSource 获取数据源详情
func (s *DataSourceService) GetDataSource(ctx context.Context, id string) (*DataSourceResponse, error) {
	ds, err := s.uc.Get(ctx, id)
	if err != nil {
		return nil, s.toServiceError(ctx, err)
	}
	return toDataSourceResponse(ds), nil
}

// ListDataSources 列出数据源
func (s *DataSourceService) ListDataSources(ctx context.Context, req *ListDataSourcesRequest) (*ListDataSourcesResponse, error) {
	filter := domain.ListFilter{
		CreatedBy:         req.CreatedBy,
		Status:            domain.DataSourceStatus(req.Status),
		SourceType:        domain.SourceType(req.SourceType),
		PrimaryCategory:   req.PrimaryCategory,
		SecondaryCategory: req.SecondaryCategory,
		TertiaryCategory:  req.TertiaryCategory,
		Limit:             domain.DefaultListLimit,
		Skip:              req.Skip,
	}
	if req.Limit != nil {
		if *req.Limit == 0 {
			return nil, pkgerrors.NewValidationFailed(domain.ErrInvalidListLimit.Error())
		}
		filter.Limit = *req.Limit
	}

	var err error
	if filter.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		return nil, err
	}
	if filter.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
		return nil, err
	}

	items, total, err := s.uc.List(ctx, filter)
	if err != nil {
		return nil, s.toServiceError(ctx, err)
	}

	resp := &ListDataSourcesResponse{
		Items: make([]DataSourceSummary, 0, len(items)),
		Total: total,
		Limit: filter.Limit,
		Skip:  filter.Skip,
	}
	for _, ds := range items {
		resp.Items = append(resp.Items, toDataSourceSummary(ds))
	}
	return resp, nil
}

// UpdateInfo 更新基础信息
func (s *DataSourceService) UpdateInfo(ctx context.Context, id string, req *UpdateInfoRequest) error {
	update := domain.InfoUpdate{
		Title:             req.Title,
		Description:       req.Description,
		Tags:              req.Tags,
		CustomTags:        req.CustomTags,
		PrimaryCategory:   req.PrimaryCategory,
		SecondaryCategory: req.SecondaryCategory,
		TertiaryCategory:  req.TertiaryCategory,
		SetTags:           req.Tags != nil,
		SetCustomTags:     req.CustomTags != nil,
	}
	return s.toServiceError(ctx, s.uc.UpdateInfo(ctx, id, update, req.UpdatedBy))
}

// UpdateContent 更新编辑内容
func (s *DataSourceService) UpdateContent(ctx context.Context, id string, req *UpdateContentRequest) error {
	return s.toServiceError(ctx, s.uc.UpdateContent(ctx, id, req.EditedContent, req.UpdatedBy))
}

// DeleteDataSource 删除数据源
func (s *DataSourceService) DeleteDataSource(ctx context.Context, id, deletedBy string) error {
	return s.toServiceError(ctx, s.uc.Delete(ctx, id, deletedBy))
}

// AddRawData 添加原始数据
func (s *DataSourceService) AddRawData(ctx context.Context, id string, req *AddRawDataRequest) error {
	return s.toServiceError(ctx, s.uc.AddRawData(ctx, id, req.DataID, domain.RawDataType(req.DataType), req.AddedBy))
}

// RemoveRawData 移除原始数据
func (s *DataSourceService) RemoveRawData(ctx context.Context, id string, req *RemoveRawDataRequest) error {
	return s.toServiceError(ctx, s.uc.RemoveRawData(ctx, id, req.DataID, domain.RawDataType(req.DataType), req.RemovedBy))
}

// Confirm 确定数据源
func (s *DataSourceService) Confirm(ctx context.Context, id string, req *ConfirmRequest) error {
	return s.toServiceError(ctx, s.uc.Confirm(ctx, id, req.ConfirmedBy))
}

// Revert 恢复为草稿
func (s *DataSourceService) Revert(ctx context.Context, id string, req *RevertRequest) error {
	return s.toServiceError(ctx, s.uc.RevertToDraft(ctx, id, req.RevertedBy))
}

// BatchArchive 批量留存原始数据
func (s *DataSourceService) BatchArchive(ctx context.Context, req *BatchOperationRequest) (*BatchResultResponse, error) {
	result, err := s.uc.BatchArchive(ctx, toBatchRequest(req))
	if err != nil {
		return nil, s.toServiceError(ctx, err)
	}
	return toBatchResultResponse(result), nil
}

// BatchDelete 批量删除原始数据
func (s *DataSourceService) BatchDelete(ctx context.Context, req *BatchOperationRequest) (*BatchResultResponse, error) {
	result, err := s.uc.BatchDelete(ctx, toBatchRequest(req))
	if err != nil {
		return nil, s.toServiceError(ctx, err)
	}
	return toBatchResultResponse(result), nil
}

func toBatchRequest(req *BatchOperationRequest) biz.BatchRequest {
	return biz.BatchRequest{
		DataSourceID: strings.TrimSpace(req.DataSourceID),
		DataIDs:      req.DataIDs,
		DataType:     domain.RawDataType(req.DataType),
		Operator:     req.Operator,
	}
}

func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, pkgerrors.NewValidationFailed(field + " must be an RFC3339 timestamp")
	}
	return &t, nil
}

// toServiceError 将领域错误映射为带原因码的 kratos 错误
func (s *DataSourceService) toServiceError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var se *kerrors.Error
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return pkgerrors.NewValidationFailed(err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		return pkgerrors.NewInvalidState(err.Error())
	case errors.Is(err, domain.ErrPrecondition):
		return pkgerrors.NewPreconditionFailed(err.Error())
	case errors.Is(err, domain.ErrDuplicateReference):
		return pkgerrors.NewDuplicateReference(err.Error())
	case errors.Is(err, domain.ErrReferenceNotFound):
		return pkgerrors.NewReferenceNotFound(err.Error())
	case errors.Is(err, domain.ErrConcurrentModification):
		return pkgerrors.NewConcurrentModification(err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return pkgerrors.NewNotFound(err.Error())
	default:
		s.log.WithContext(ctx).Errorf("unexpected error: %v", err)
		return pkgerrors.ErrInternalServerError.WithCause(err)
	}
}
