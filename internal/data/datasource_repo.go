package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"datacuration/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DataSourcePO 数据源持久化对象
type DataSourcePO struct {
	ID          string `gorm:"primaryKey;size:64"`
	Title       string `gorm:"size:200;not null"`
	Description string `gorm:"size:1000;not null;default:''"`
	SourceType  string `gorm:"size:20;not null;default:'';index:idx_data_sources_source_type"`
	Status      string `gorm:"size:20;not null;index:idx_data_sources_status"`

	RawDataRefs datatypes.JSON `gorm:"type:jsonb;not null"`

	EditedContent  string `gorm:"type:text;not null;default:''"`
	ContentVersion int    `gorm:"not null;default:0"`

	TotalRawDataCount  int `gorm:"not null;default:0"`
	ScheduledDataCount int `gorm:"not null;default:0"`
	InstantDataCount   int `gorm:"not null;default:0"`

	CreatedBy   string    `gorm:"size:100;not null;index:idx_data_sources_created_by"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false;index:idx_data_sources_created_at,sort:desc"`
	ConfirmedBy *string   `gorm:"size:100"`
	ConfirmedAt *time.Time
	UpdatedBy   string    `gorm:"size:100;not null"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`

	Tags              datatypes.JSON    `gorm:"type:jsonb;not null"`
	CustomTags        datatypes.JSON    `gorm:"type:jsonb;not null"`
	PrimaryCategory   *string           `gorm:"size:100;index:idx_data_sources_categories,priority:1"`
	SecondaryCategory *string           `gorm:"size:100;index:idx_data_sources_categories,priority:2"`
	TertiaryCategory  *string           `gorm:"size:100;index:idx_data_sources_categories,priority:3"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb"`

	Revision int64 `gorm:"not null;default:1"`
}

// TableName 表名
func (DataSourcePO) TableName() string {
	return "data_sources"
}

// rawDataRefPO 引用的 JSON 存储格式
type rawDataRefPO struct {
	DataID   string    `json:"data_id"`
	DataType string    `json:"data_type"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Snippet  string    `json:"snippet"`
	AddedAt  time.Time `json:"added_at"`
	AddedBy  string    `json:"added_by"`
}

// DataSourceRepository 数据源仓储实现
type DataSourceRepository struct {
	data *Data
	log  *log.Helper
}

// NewDataSourceRepo 创建数据源仓储
func NewDataSourceRepo(data *Data, logger log.Logger) domain.DataSourceRepository {
	return &DataSourceRepository{
		data: data,
		log:  log.NewHelper(log.With(logger, "module", "data/datasource")),
	}
}

// Create 创建数据源
func (r *DataSourceRepository) Create(ctx context.Context, ds *domain.DataSource) error {
	po, err := toDataSourcePO(ds)
	if err != nil {
		return err
	}
	po.Revision = 1

	if err := r.data.DB(ctx).Create(po).Error; err != nil {
		r.log.WithContext(ctx).Errorf("failed to create data source: %v", err)
		return fmt.Errorf("failed to create data source: %w", err)
	}

	ds.Revision = po.Revision
	return nil
}

// GetByID 根据ID获取数据源
func (r *DataSourceRepository) GetByID(ctx context.Context, id string) (*domain.DataSource, error) {
	var po DataSourcePO
	if err := r.data.DB(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDataSourceNotFound
		}
		r.log.WithContext(ctx).Errorf("failed to get data source: %v", err)
		return nil, fmt.Errorf("failed to get data source: %w", err)
	}

	return toDomainDataSource(&po)
}

// Update 按版本号更新，其他写入已提交时返回 ErrDataSourceConflict
func (r *DataSourceRepository) Update(ctx context.Context, ds *domain.DataSource) error {
	po, err := toDataSourcePO(ds)
	if err != nil {
		return err
	}
	po.Revision = ds.Revision + 1

	result := r.data.DB(ctx).
		Model(&DataSourcePO{}).
		Where("id = ? AND revision = ?", ds.ID, ds.Revision).
		Select("*").
		Omit("id", "created_by", "created_at").
		Updates(po)
	if result.Error != nil {
		r.log.WithContext(ctx).Errorf("failed to update data source: %v", result.Error)
		return fmt.Errorf("failed to update data source: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.data.DB(ctx).Model(&DataSourcePO{}).Where("id = ?", ds.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check data source: %w", err)
		}
		if count == 0 {
			return domain.ErrDataSourceNotFound
		}
		r.log.WithContext(ctx).Warnf("data source revision conflict: id=%s revision=%d", ds.ID, ds.Revision)
		return domain.ErrDataSourceConflict
	}

	ds.Revision = po.Revision
	return nil
}

// Delete 删除数据源
func (r *DataSourceRepository) Delete(ctx context.Context, id string) error {
	result := r.data.DB(ctx).Delete(&DataSourcePO{}, "id = ?", id)
	if result.Error != nil {
		r.log.WithContext(ctx).Errorf("failed to delete data source: %v", result.Error)
		return fmt.Errorf("failed to delete data source: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrDataSourceNotFound
	}

	return nil
}

// List 按条件分页查询
func (r *DataSourceRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.DataSource, int64, error) {
	query := r.data.DB(ctx).Model(&DataSourcePO{})
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.SourceType != "" {
		query = query.Where("source_type = ?", string(filter.SourceType))
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if filter.PrimaryCategory != "" {
		query = query.Where("primary_category = ?", filter.PrimaryCategory)
	}
	if filter.SecondaryCategory != "" {
		query = query.Where("secondary_category = ?", filter.SecondaryCategory)
	}
	if filter.TertiaryCategory != "" {
		query = query.Where("tertiary_category = ?", filter.TertiaryCategory)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.log.WithContext(ctx).Errorf("failed to count data sources: %v", err)
		return nil, 0, fmt.Errorf("failed to count data sources: %w", err)
	}

	var pos []DataSourcePO
	if err := query.
		Order("created_at DESC").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&pos).Error; err != nil {
		r.log.WithContext(ctx).Errorf("failed to list data sources: %v", err)
		return nil, 0, fmt.Errorf("failed to list data sources: %w", err)
	}

	items := make([]*domain.DataSource, 0, len(pos))
	for i := range pos {
		ds, err := toDomainDataSource(&pos[i])
		if err != nil {
			r.log.WithContext(ctx).Warnf("failed to convert data source %s: %v", pos[i].ID, err)
			continue
		}
		items = append(items, ds)
	}

	return items, total, nil
}

func toDataSourcePO(ds *domain.DataSource) (*DataSourcePO, error) {
	refs := make([]rawDataRefPO, 0, len(ds.RawDataRefs))
	for _, ref := range ds.RawDataRefs {
		refs = append(refs, rawDataRefPO{
			DataID:   ref.DataID,
			DataType: string(ref.DataType),
			Title:    ref.Title,
			URL:      ref.URL,
			Snippet:  ref.Snippet,
			AddedAt:  ref.AddedAt,
			AddedBy:  ref.AddedBy,
		})
	}
	refsJSON, err := json.Marshal(refs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw data refs: %w", err)
	}
	tagsJSON, err := marshalStrings(ds.Tags)
	if err != nil {
		return nil, err
	}
	customTagsJSON, err := marshalStrings(ds.CustomTags)
	if err != nil {
		return nil, err
	}

	return &DataSourcePO{
		ID:                 ds.ID,
		Title:              ds.Title,
		Description:        ds.Description,
		SourceType:         string(ds.SourceType),
		Status:             string(ds.Status),
		RawDataRefs:        datatypes.JSON(refsJSON),
		EditedContent:      ds.EditedContent,
		ContentVersion:     ds.ContentVersion,
		TotalRawDataCount:  ds.TotalRawDataCount,
		ScheduledDataCount: ds.ScheduledDataCount,
		InstantDataCount:   ds.InstantDataCount,
		CreatedBy:          ds.CreatedBy,
		CreatedAt:          ds.CreatedAt,
		ConfirmedBy:        ds.ConfirmedBy,
		ConfirmedAt:        ds.ConfirmedAt,
		UpdatedBy:          ds.UpdatedBy,
		UpdatedAt:          ds.UpdatedAt,
		Tags:               datatypes.JSON(tagsJSON),
		CustomTags:         datatypes.JSON(customTagsJSON),
		PrimaryCategory:    ds.PrimaryCategory,
		SecondaryCategory:  ds.SecondaryCategory,
		TertiaryCategory:   ds.TertiaryCategory,
		Metadata:           datatypes.JSONMap(ds.Metadata),
		Revision:           ds.Revision,
	}, nil
}

func toDomainDataSource(po *DataSourcePO) (*domain.DataSource, error) {
	var refs []rawDataRefPO
	if len(po.RawDataRefs) > 0 {
		if err := json.Unmarshal(po.RawDataRefs, &refs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal raw data refs: %w", err)
		}
	}
	domainRefs := make([]domain.RawDataReference, 0, len(refs))
	for _, ref := range refs {
		domainRefs = append(domainRefs, domain.RawDataReference{
			DataID:   ref.DataID,
			DataType: domain.RawDataType(ref.DataType),
			Title:    ref.Title,
			URL:      ref.URL,
			Snippet:  ref.Snippet,
			AddedAt:  ref.AddedAt,
			AddedBy:  ref.AddedBy,
		})
	}

	tags, err := unmarshalStrings(po.Tags)
	if err != nil {
		return nil, err
	}
	customTags, err := unmarshalStrings(po.CustomTags)
	if err != nil {
		return nil, err
	}

	metadata := map[string]interface{}(po.Metadata)
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	// 统计字段以引用为准，列值只用于查询过滤
	total, scheduled, instant := domain.CountRawData(domainRefs)

	return &domain.DataSource{
		ID:                 po.ID,
		Title:              po.Title,
		Description:        po.Description,
		SourceType:         domain.DeriveSourceType(domainRefs),
		Status:             domain.DataSourceStatus(po.Status),
		RawDataRefs:        domainRefs,
		EditedContent:      po.EditedContent,
		ContentVersion:     po.ContentVersion,
		TotalRawDataCount:  total,
		ScheduledDataCount: scheduled,
		InstantDataCount:   instant,
		CreatedBy:          po.CreatedBy,
		CreatedAt:          po.CreatedAt,
		ConfirmedBy:        po.ConfirmedBy,
		ConfirmedAt:        po.ConfirmedAt,
		UpdatedBy:          po.UpdatedBy,
		UpdatedAt:          po.UpdatedAt,
		Tags:               tags,
		CustomTags:         customTags,
		PrimaryCategory:    po.PrimaryCategory,
		SecondaryCategory:  po.SecondaryCategory,
		TertiaryCategory:   po.TertiaryCategory,
		Metadata:           metadata,
		Revision:           po.Revision,
	}, nil
}

func marshalStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return b, nil
}

func unmarshalStrings(raw datatypes.JSON) ([]string, error) {
	values := []string{}
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return values, nil
}
