package domain

import (
	"context"
	"time"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ListFilter 数据源列表过滤条件
type ListFilter struct {
	CreatedBy         string
	Status            DataSourceStatus
	SourceType        SourceType
	StartDate         *time.Time
	EndDate           *time.Time
	PrimaryCategory   string
	SecondaryCategory string
	TertiaryCategory  string
	Limit             int
	Skip              int
}

// Validate 校验过滤条件，Limit 为0时使用默认值
func (f *ListFilter) Validate() error {
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit < 1 || f.Limit > MaxListLimit {
		return ErrInvalidListLimit
	}
	if f.Skip < 0 {
		return ErrInvalidListSkip
	}
	if f.Status != "" && !f.Status.IsValid() {
		return ErrInvalidStatusFilter
	}
	if f.SourceType != "" && !f.SourceType.IsValid() {
		return ErrInvalidSourceFilter
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// DataSourceRepository 数据源仓储接口
type DataSourceRepository interface {
	// Create 创建数据源
	Create(ctx context.Context, ds *DataSource) error

	// GetByID 根据ID获取数据源
	GetByID(ctx context.Context, id string) (*DataSource, error)

	// Update 按版本号更新数据源，版本不一致时返回 ErrDataSourceConflict
	Update(ctx context.Context, ds *DataSource) error

	// Delete 删除数据源
	Delete(ctx context.Context, id string) error

	// List 按条件分页查询，按创建时间倒序
	List(ctx context.Context, filter ListFilter) ([]*DataSource, int64, error)
}

// RawRecordRepository 原始数据仓储接口
type RawRecordRepository interface {
	// GetByID 根据类型和ID获取原始数据
	GetByID(ctx context.Context, dataType RawDataType, id string) (*RawRecord, error)

	// UpdateStatus 更新单条原始数据状态
	UpdateStatus(ctx context.Context, dataType RawDataType, id string, status RawRecordStatus) error

	// BatchUpdateStatus 批量更新状态，返回实际更新的ID
	BatchUpdateStatus(ctx context.Context, dataType RawDataType, ids []string, status RawRecordStatus) ([]string, error)
}

// IDGenerator 数据源ID生成器
type IDGenerator interface {
	NewID() string
}
