package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datacuration/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

const (
	scheduledResultsTable = "search_results"
	instantResultsTable   = "instant_search_results"
)

// RawRecordPO 原始搜索结果持久化对象，两张表结构一致
type RawRecordPO struct {
	ID          string `gorm:"primaryKey;size:64"`
	Title       string `gorm:"size:500;not null;default:''"`
	URL         string `gorm:"size:2000;not null;default:''"`
	Snippet     string `gorm:"type:text;not null;default:''"`
	Content     string `gorm:"type:text;not null;default:''"`
	Status      string `gorm:"size:20;not null;default:'pending';index"`
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScheduledResultPO 定时任务搜索结果
type ScheduledResultPO struct {
	RawRecordPO `gorm:"embedded"`
}

// TableName 表名
func (ScheduledResultPO) TableName() string {
	return scheduledResultsTable
}

// InstantResultPO 即时搜索结果
type InstantResultPO struct {
	RawRecordPO `gorm:"embedded"`
}

// TableName 表名
func (InstantResultPO) TableName() string {
	return instantResultsTable
}

func tableFor(dataType domain.RawDataType) (string, error) {
	switch dataType {
	case domain.RawDataTypeScheduled:
		return scheduledResultsTable, nil
	case domain.RawDataTypeInstant:
		return instantResultsTable, nil
	default:
		return "", domain.ErrInvalidDataType
	}
}

// RawRecordRepository 原始数据仓储实现
type RawRecordRepository struct {
	data *Data
	log  *log.Helper
}

// NewRawRecordRepo 创建原始数据仓储
func NewRawRecordRepo(data *Data, logger log.Logger) domain.RawRecordRepository {
	return &RawRecordRepository{
		data: data,
		log:  log.NewHelper(log.With(logger, "module", "data/raw_record")),
	}
}

// GetByID 根据类型和ID获取原始数据
func (r *RawRecordRepository) GetByID(ctx context.Context, dataType domain.RawDataType, id string) (*domain.RawRecord, error) {
	table, err := tableFor(dataType)
	if err != nil {
		return nil, err
	}

	var po RawRecordPO
	if err := r.data.DB(ctx).Table(table).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRawRecordNotFound
		}
		r.log.WithContext(ctx).Errorf("failed to get raw record: %v", err)
		return nil, fmt.Errorf("failed to get raw record: %w", err)
	}

	return toDomainRawRecord(&po, dataType), nil
}

// UpdateStatus 更新单条原始数据状态
func (r *RawRecordRepository) UpdateStatus(ctx context.Context, dataType domain.RawDataType, id string, status domain.RawRecordStatus) error {
	updated, err := r.BatchUpdateStatus(ctx, dataType, []string{id}, status)
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		return domain.ErrRawRecordNotFound
	}
	return nil
}

// BatchUpdateStatus 批量更新状态，返回实际存在并被更新的ID
func (r *RawRecordRepository) BatchUpdateStatus(ctx context.Context, dataType domain.RawDataType, ids []string, status domain.RawRecordStatus) ([]string, error) {
	table, err := tableFor(dataType)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	var existing []string
	if err := r.data.DB(ctx).Table(table).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		r.log.WithContext(ctx).Errorf("failed to find raw records: %v", err)
		return nil, fmt.Errorf("failed to find raw records: %w", err)
	}
	if len(existing) == 0 {
		return []string{}, nil
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": now,
	}
	switch status {
	case domain.RawRecordStatusCompleted:
		updates["processed_at"] = now
	case domain.RawRecordStatusProcessing:
		updates["processed_at"] = nil
	}

	if err := r.data.DB(ctx).Table(table).Where("id IN ?", existing).Updates(updates).Error; err != nil {
		r.log.WithContext(ctx).Errorf("failed to update raw record status: %v", err)
		return nil, fmt.Errorf("failed to update raw record status: %w", err)
	}

	return existing, nil
}

// Create 写入原始数据，用于初始化和测试数据
func (r *RawRecordRepository) Create(ctx context.Context, record *domain.RawRecord) error {
	table, err := tableFor(record.Type)
	if err != nil {
		return err
	}
	po := toRawRecordPO(record)
	if err := r.data.DB(ctx).Table(table).Create(po).Error; err != nil {
		return fmt.Errorf("failed to create raw record: %w", err)
	}
	return nil
}

func toRawRecordPO(rec *domain.RawRecord) *RawRecordPO {
	status := rec.Status
	if status == "" {
		status = domain.RawRecordStatusPending
	}
	return &RawRecordPO{
		ID:          rec.ID,
		Title:       rec.Title,
		URL:         rec.URL,
		Snippet:     rec.Snippet,
		Content:     rec.Content,
		Status:      string(status),
		ProcessedAt: rec.ProcessedAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func toDomainRawRecord(po *RawRecordPO, dataType domain.RawDataType) *domain.RawRecord {
	return &domain.RawRecord{
		ID:          po.ID,
		Type:        dataType,
		Title:       po.Title,
		URL:         po.URL,
		Snippet:     po.Snippet,
		Content:     po.Content,
		Status:      domain.RawRecordStatus(po.Status),
		ProcessedAt: po.ProcessedAt,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
}
