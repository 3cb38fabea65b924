package domain

import (
	"time"
	"unicode/utf8"
)

// RawDataType 原始数据类型
type RawDataType string

const (
	RawDataTypeScheduled RawDataType = "scheduled" // search_results
	RawDataTypeInstant   RawDataType = "instant"   // instant_search_results
)

// IsValid 检查类型是否合法
func (t RawDataType) IsValid() bool {
	return t == RawDataTypeScheduled || t == RawDataTypeInstant
}

// RawDataReference 原始数据引用（值对象），添加时复制标题、链接和摘要快照
type RawDataReference struct {
	DataID   string
	DataType RawDataType
	Title    string
	URL      string
	Snippet  string
	AddedAt  time.Time
	AddedBy  string
}

// RawRecordStatus 原始数据处理状态
type RawRecordStatus string

const (
	RawRecordStatusPending    RawRecordStatus = "pending"
	RawRecordStatusProcessing RawRecordStatus = "processing"
	RawRecordStatusCompleted  RawRecordStatus = "completed"
	RawRecordStatusArchived   RawRecordStatus = "archived"
	RawRecordStatusDeleted    RawRecordStatus = "deleted"
)

// IsValid 检查状态是否合法
func (s RawRecordStatus) IsValid() bool {
	switch s {
	case RawRecordStatusPending, RawRecordStatusProcessing, RawRecordStatusCompleted,
		RawRecordStatusArchived, RawRecordStatusDeleted:
		return true
	}
	return false
}

// snippetFallbackLength 摘要为空时从正文截取的长度
const snippetFallbackLength = 200

// RawRecord 原始搜索结果（定时任务或即时搜索产生）
type RawRecord struct {
	ID          string
	Type        RawDataType
	Title       string
	URL         string
	Snippet     string
	Content     string
	Status      RawRecordStatus
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanBeAdded 只有待处理或已留存的数据可以加入数据源
func (r *RawRecord) CanBeAdded() bool {
	return r.Status == RawRecordStatusPending || r.Status == RawRecordStatusArchived
}

// SnapshotSnippet 摘要快照，摘要为空时取正文前200个字符
func (r *RawRecord) SnapshotSnippet() string {
	if r.Snippet != "" {
		return r.Snippet
	}
	if utf8.RuneCountInString(r.Content) <= snippetFallbackLength {
		return r.Content
	}
	return string([]rune(r.Content)[:snippetFallbackLength])
}
