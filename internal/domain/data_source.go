package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// DataSourceStatus 数据源状态（仅2个状态）
type DataSourceStatus string

const (
	DataSourceStatusDraft     DataSourceStatus = "draft"     // 草稿：可编辑、可添加删除数据
	DataSourceStatusConfirmed DataSourceStatus = "confirmed" // 已确定：只读、数据已锁定
)

// IsValid 检查状态是否合法
func (s DataSourceStatus) IsValid() bool {
	return s == DataSourceStatusDraft || s == DataSourceStatusConfirmed
}

// SourceType 数据源类型，由原始数据引用推导
type SourceType string

const (
	SourceTypeNone      SourceType = ""
	SourceTypeScheduled SourceType = "scheduled" // 来自定时任务
	SourceTypeInstant   SourceType = "instant"   // 来自即时搜索
	SourceTypeMixed     SourceType = "mixed"     // 混合数据源
)

// IsValid 检查类型是否合法（不含空值）
func (t SourceType) IsValid() bool {
	return t == SourceTypeScheduled || t == SourceTypeInstant || t == SourceTypeMixed
}

// DataSource 数据源聚合根
type DataSource struct {
	ID          string
	Title       string
	Description string
	SourceType  SourceType
	Status      DataSourceStatus

	RawDataRefs []RawDataReference

	EditedContent  string // Markdown
	ContentVersion int

	TotalRawDataCount  int
	ScheduledDataCount int
	InstantDataCount   int

	CreatedBy   string
	CreatedAt   time.Time
	ConfirmedBy *string
	ConfirmedAt *time.Time
	UpdatedBy   string
	UpdatedAt   time.Time

	Tags              []string
	CustomTags        []string
	PrimaryCategory   *string
	SecondaryCategory *string
	TertiaryCategory  *string
	Metadata          map[string]interface{}

	// Revision 乐观锁版本，由仓储维护
	Revision int64
}

// CreateParams 创建数据源参数
type CreateParams struct {
	Title             string
	Description       string
	CreatedBy         string
	Tags              []string
	CustomTags        []string
	PrimaryCategory   *string
	SecondaryCategory *string
	TertiaryCategory  *string
	Metadata          map[string]interface{}
}

// NewDataSource 创建草稿状态的数据源
func NewDataSource(id string, p CreateParams) (*DataSource, error) {
	if err := validateTitle(p.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(p.Description); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.CreatedBy) == "" {
		return nil, ErrInvalidOperator
	}

	metadata := p.Metadata
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	now := time.Now().UTC()
	ds := &DataSource{
		ID:                id,
		Title:             p.Title,
		Description:       p.Description,
		Status:            DataSourceStatusDraft,
		RawDataRefs:       []RawDataReference{},
		CreatedBy:         p.CreatedBy,
		CreatedAt:         now,
		UpdatedBy:         p.CreatedBy,
		UpdatedAt:         now,
		Tags:              NormalizeTags(p.Tags),
		CustomTags:        NormalizeTags(p.CustomTags),
		PrimaryCategory:   normalizeCategory(p.PrimaryCategory),
		SecondaryCategory: normalizeCategory(p.SecondaryCategory),
		TertiaryCategory:  normalizeCategory(p.TertiaryCategory),
		Metadata:          metadata,
	}
	ds.recomputeStatistics()
	return ds, nil
}

// InfoUpdate 基础信息的部分更新，nil 字段保持原值
type InfoUpdate struct {
	Title             *string
	Description       *string
	Tags              []string
	CustomTags        []string
	PrimaryCategory   *string
	SecondaryCategory *string
	TertiaryCategory  *string

	// 为 true 时替换对应集合（允许清空）
	SetTags       bool
	SetCustomTags bool
}

// CanEdit 是否可以编辑
func (d *DataSource) CanEdit() bool {
	return d.Status == DataSourceStatusDraft
}

// CanRevertToDraft 是否可以恢复为草稿
func (d *DataSource) CanRevertToDraft() bool {
	return d.Status == DataSourceStatusConfirmed
}

// IsConfirmed 是否已确定
func (d *DataSource) IsConfirmed() bool {
	return d.Status == DataSourceStatusConfirmed
}

// UpdateInfo 更新基础信息（仅草稿状态）
func (d *DataSource) UpdateInfo(u InfoUpdate, updatedBy string) error {
	if !d.CanEdit() {
		return ErrNotDraft
	}
	if strings.TrimSpace(updatedBy) == "" {
		return ErrInvalidOperator
	}
	if u.Title != nil {
		if err := validateTitle(*u.Title); err != nil {
			return err
		}
	}
	if u.Description != nil {
		if err := validateDescription(*u.Description); err != nil {
			return err
		}
	}

	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.SetTags || u.Tags != nil {
		d.Tags = NormalizeTags(u.Tags)
	}
	if u.SetCustomTags || u.CustomTags != nil {
		d.CustomTags = NormalizeTags(u.CustomTags)
	}
	if u.PrimaryCategory != nil {
		d.PrimaryCategory = normalizeCategory(u.PrimaryCategory)
	}
	if u.SecondaryCategory != nil {
		d.SecondaryCategory = normalizeCategory(u.SecondaryCategory)
	}
	if u.TertiaryCategory != nil {
		d.TertiaryCategory = normalizeCategory(u.TertiaryCategory)
	}
	d.touch(updatedBy)
	return nil
}

// UpdateContent 更新编辑内容，版本号加1
func (d *DataSource) UpdateContent(content, updatedBy string) error {
	if !d.CanEdit() {
		return ErrNotDraft
	}
	if strings.TrimSpace(updatedBy) == "" {
		return ErrInvalidOperator
	}

	d.EditedContent = content
	d.ContentVersion++
	d.touch(updatedBy)
	return nil
}

// AddRawData 添加原始数据引用
func (d *DataSource) AddRawData(dataID string, dataType RawDataType, title, url, snippet, addedBy string) error {
	if !d.CanEdit() {
		return ErrNotDraft
	}
	if strings.TrimSpace(dataID) == "" {
		return ErrInvalidDataID
	}
	if !dataType.IsValid() {
		return ErrInvalidDataType
	}
	if strings.TrimSpace(addedBy) == "" {
		return ErrInvalidOperator
	}
	if d.HasRawData(dataID, dataType) {
		return ErrRawDataAlreadyAttached
	}

	now := time.Now().UTC()
	d.RawDataRefs = append(d.RawDataRefs, RawDataReference{
		DataID:   dataID,
		DataType: dataType,
		Title:    title,
		URL:      url,
		Snippet:  snippet,
		AddedAt:  now,
		AddedBy:  addedBy,
	})
	d.recomputeStatistics()
	d.touch(addedBy)
	return nil
}

// RemoveRawData 移除原始数据引用
func (d *DataSource) RemoveRawData(dataID string, dataType RawDataType, removedBy string) error {
	if !d.CanEdit() {
		return ErrNotDraft
	}
	if strings.TrimSpace(removedBy) == "" {
		return ErrInvalidOperator
	}
	idx := d.indexOf(dataID, dataType)
	if idx < 0 {
		return ErrRawDataNotAttached
	}

	d.RawDataRefs = append(d.RawDataRefs[:idx:idx], d.RawDataRefs[idx+1:]...)
	d.recomputeStatistics()
	d.touch(removedBy)
	return nil
}

// Confirm 确定数据源 DRAFT → CONFIRMED
func (d *DataSource) Confirm(confirmedBy string) error {
	if d.Status != DataSourceStatusDraft {
		return ErrNotDraft
	}
	if strings.TrimSpace(confirmedBy) == "" {
		return ErrInvalidOperator
	}
	if d.TotalRawDataCount == 0 {
		return ErrNothingToConfirm
	}

	d.Status = DataSourceStatusConfirmed
	d.touch(confirmedBy)
	by, at := confirmedBy, d.UpdatedAt
	d.ConfirmedBy = &by
	d.ConfirmedAt = &at
	return nil
}

// RevertToDraft 恢复为草稿 CONFIRMED → DRAFT
func (d *DataSource) RevertToDraft(revertedBy string) error {
	if !d.CanRevertToDraft() {
		return ErrNotConfirmed
	}
	if strings.TrimSpace(revertedBy) == "" {
		return ErrInvalidOperator
	}

	d.Status = DataSourceStatusDraft
	d.ConfirmedBy = nil
	d.ConfirmedAt = nil
	d.touch(revertedBy)
	return nil
}

// BatchRemoveRawData 批量移除引用，逐条记录结果，已成功的条目不回滚
func (d *DataSource) BatchRemoveRawData(dataIDs []string, dataType RawDataType, operator string) (*BatchResult, error) {
	if len(dataIDs) == 0 {
		return nil, ErrEmptyBatch
	}
	if !dataType.IsValid() {
		return nil, ErrInvalidDataType
	}
	if strings.TrimSpace(operator) == "" {
		return nil, ErrInvalidOperator
	}

	result := NewBatchResult()
	for _, id := range UniqueIDs(dataIDs) {
		if err := d.RemoveRawData(id, dataType, operator); err != nil {
			result.Fail(id, err)
			continue
		}
		result.Succeed(id)
	}
	return result, nil
}

// BatchArchiveRawData 校验待留存的引用仍挂在数据源上，引用本身保持不变。
// 已确定的数据源数据已锁定，所有条目均失败
func (d *DataSource) BatchArchiveRawData(dataIDs []string, dataType RawDataType) (*BatchResult, error) {
	if len(dataIDs) == 0 {
		return nil, ErrEmptyBatch
	}
	if !dataType.IsValid() {
		return nil, ErrInvalidDataType
	}

	result := NewBatchResult()
	for _, id := range UniqueIDs(dataIDs) {
		if !d.CanEdit() {
			result.Fail(id, ErrNotDraft)
			continue
		}
		if !d.HasRawData(id, dataType) {
			result.Fail(id, ErrRawDataNotAttached)
			continue
		}
		result.Succeed(id)
	}
	return result, nil
}

// HasRawData 检查引用是否存在
func (d *DataSource) HasRawData(dataID string, dataType RawDataType) bool {
	return d.indexOf(dataID, dataType) >= 0
}

func (d *DataSource) indexOf(dataID string, dataType RawDataType) int {
	for i, ref := range d.RawDataRefs {
		if ref.DataID == dataID && ref.DataType == dataType {
			return i
		}
	}
	return -1
}

func (d *DataSource) recomputeStatistics() {
	d.TotalRawDataCount, d.ScheduledDataCount, d.InstantDataCount = CountRawData(d.RawDataRefs)
	d.SourceType = DeriveSourceType(d.RawDataRefs)
}

func (d *DataSource) touch(by string) {
	d.UpdatedBy = by
	d.UpdatedAt = time.Now().UTC()
}

// DeriveSourceType 根据引用组成推导数据源类型
func DeriveSourceType(refs []RawDataReference) SourceType {
	_, scheduled, instant := CountRawData(refs)
	switch {
	case scheduled > 0 && instant > 0:
		return SourceTypeMixed
	case scheduled > 0:
		return SourceTypeScheduled
	case instant > 0:
		return SourceTypeInstant
	default:
		return SourceTypeNone
	}
}

// CountRawData 统计引用数量
func CountRawData(refs []RawDataReference) (total, scheduled, instant int) {
	for _, ref := range refs {
		switch ref.DataType {
		case RawDataTypeScheduled:
			scheduled++
		case RawDataTypeInstant:
			instant++
		}
	}
	return scheduled + instant, scheduled, instant
}

// NormalizeTags 去除空白并去重，保留首次出现的顺序
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// 空字符串视为清空分类
func normalizeCategory(c *string) *string {
	if c == nil {
		return nil
	}
	v := strings.TrimSpace(*c)
	if v == "" {
		return nil
	}
	return &v
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if strings.TrimSpace(title) == "" || n > MaxTitleLength {
		return ErrInvalidTitle
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrInvalidDescription
	}
	return nil
}
