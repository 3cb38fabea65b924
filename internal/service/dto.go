package service

import (
	"time"

	"datacuration/internal/domain"
)

// CreateDataSourceRequest 创建数据源请求
type CreateDataSourceRequest struct {
	Title             string                 `json:"title" binding:"required"`
	Description       string                 `json:"description"`
	CreatedBy         string                 `json:"created_by" binding:"required"`
	Tags              []string               `json:"tags"`
	CustomTags        []string               `json:"custom_tags"`
	PrimaryCategory   *string                `json:"primary_category"`
	SecondaryCategory *string                `json:"secondary_category"`
	TertiaryCategory  *string                `json:"tertiary_category"`
	Metadata          map[string]interface{} `json:"metadata"`
}

// UpdateInfoRequest 更新基础信息请求，未提供的字段保持不变
type UpdateInfoRequest struct {
	Title             *string  `json:"title"`
	Description       *string  `json:"description"`
	Tags              []string `json:"tags"`
	CustomTags        []string `json:"custom_tags"`
	PrimaryCategory   *string  `json:"primary_category"`
	SecondaryCategory *string  `json:"secondary_category"`
	TertiaryCategory  *string  `json:"tertiary_category"`
	UpdatedBy         string   `json:"updated_by" binding:"required"`
}

// UpdateContentRequest 更新编辑内容请求
type UpdateContentRequest struct {
	EditedContent string `json:"edited_content"`
	UpdatedBy     string `json:"updated_by" binding:"required"`
}

// AddRawDataRequest 添加原始数据请求
type AddRawDataRequest struct {
	DataID   string `json:"data_id" binding:"required"`
	DataType string `json:"data_type" binding:"required"`
	AddedBy  string `json:"added_by" binding:"required"`
}

// RemoveRawDataRequest 移除原始数据请求
type RemoveRawDataRequest struct {
	DataID    string `json:"data_id" binding:"required"`
	DataType  string `json:"data_type" binding:"required"`
	RemovedBy string `json:"removed_by" binding:"required"`
}

// ConfirmRequest 确定数据源请求
type ConfirmRequest struct {
	ConfirmedBy string `json:"confirmed_by" binding:"required"`
}

// RevertRequest 恢复草稿请求
type RevertRequest struct {
	RevertedBy string `json:"reverted_by" binding:"required"`
}

// BatchOperationRequest 批量操作请求，data_source_id 为空时直接作用于原始数据
type BatchOperationRequest struct {
	DataSourceID string   `json:"data_source_id,omitempty"`
	DataIDs      []string `json:"data_ids" binding:"required"`
	DataType     string   `json:"data_type" binding:"required"`
	Operator     string   `json:"operator" binding:"required"`
}

// ListDataSourcesRequest 列表查询参数
type ListDataSourcesRequest struct {
	CreatedBy         string `form:"created_by"`
	Status            string `form:"status"`
	SourceType        string `form:"source_type"`
	StartDate         string `form:"start_date"`
	EndDate           string `form:"end_date"`
	PrimaryCategory   string `form:"primary_category"`
	SecondaryCategory string `form:"secondary_category"`
	TertiaryCategory  string `form:"tertiary_category"`
	Limit             *int   `form:"limit"`
	Skip              int    `form:"skip"`
}

// RawDataRefResponse 原始数据引用
type RawDataRefResponse struct {
	DataID   string    `json:"data_id"`
	DataType string    `json:"data_type"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Snippet  string    `json:"snippet"`
	AddedAt  time.Time `json:"added_at"`
	AddedBy  string    `json:"added_by"`
}

// DataSourceResponse 数据源详情
type DataSourceResponse struct {
	ID                 string                 `json:"id"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description"`
	SourceType         string                 `json:"source_type"`
	Status             string                 `json:"status"`
	RawDataRefs        []RawDataRefResponse   `json:"raw_data_refs"`
	EditedContent      string                 `json:"edited_content"`
	ContentVersion     int                    `json:"content_version"`
	TotalRawDataCount  int                    `json:"total_raw_data_count"`
	ScheduledDataCount int                    `json:"scheduled_data_count"`
	InstantDataCount   int                    `json:"instant_data_count"`
	CreatedBy          string                 `json:"created_by"`
	CreatedAt          time.Time              `json:"created_at"`
	ConfirmedBy        *string                `json:"confirmed_by"`
	ConfirmedAt        *time.Time             `json:"confirmed_at"`
	UpdatedBy          string                 `json:"updated_by"`
	UpdatedAt          time.Time              `json:"updated_at"`
	Tags               []string               `json:"tags"`
	CustomTags         []string               `json:"custom_tags"`
	PrimaryCategory    *string                `json:"primary_category"`
	SecondaryCategory  *string                `json:"secondary_category"`
	TertiaryCategory   *string                `json:"tertiary_category"`
	Metadata           map[string]interface{} `json:"metadata"`
	Revision           int64                  `json:"revision"`
}

// DataSourceSummary 列表项
type DataSourceSummary struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	SourceType         string     `json:"source_type"`
	Status             string     `json:"status"`
	TotalRawDataCount  int        `json:"total_raw_data_count"`
	ScheduledDataCount int        `json:"scheduled_data_count"`
	InstantDataCount   int        `json:"instant_data_count"`
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	ConfirmedAt        *time.Time `json:"confirmed_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Tags               []string   `json:"tags"`
	PrimaryCategory    *string    `json:"primary_category"`
}

// ListDataSourcesResponse 列表结果
type ListDataSourcesResponse struct {
	Items []DataSourceSummary `json:"items"`
	Total int64               `json:"total"`
	Limit int                 `json:"limit"`
	Skip  int                 `json:"skip"`
}

// BatchResultResponse 批量操作结果
type BatchResultResponse struct {
	SuccessCount int               `json:"success_count"`
	FailedCount  int               `json:"failed_count"`
	SucceededIDs []string          `json:"succeeded_ids"`
	FailedIDs    []string          `json:"failed_ids"`
	Failures     map[string]string `json:"failures,omitempty"`
}

func toDataSourceResponse(ds *domain.DataSource) *DataSourceResponse {
	refs := make([]RawDataRefResponse, 0, len(ds.RawDataRefs))
	for _, ref := range ds.RawDataRefs {
		refs = append(refs, RawDataRefResponse{
			DataID:   ref.DataID,
			DataType: string(ref.DataType),
			Title:    ref.Title,
			URL:      ref.URL,
			Snippet:  ref.Snippet,
			AddedAt:  ref.AddedAt,
			AddedBy:  ref.AddedBy,
		})
	}

	return &DataSourceResponse{
		ID:                 ds.ID,
		Title:              ds.Title,
		Description:        ds.Description,
		SourceType:         string(ds.SourceType),
		Status:             string(ds.Status),
		RawDataRefs:        refs,
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
		Tags:               nonNil(ds.Tags),
		CustomTags:         nonNil(ds.CustomTags),
		PrimaryCategory:    ds.PrimaryCategory,
		SecondaryCategory:  ds.SecondaryCategory,
		TertiaryCategory:   ds.TertiaryCategory,
		Metadata:           ds.Metadata,
		Revision:           ds.Revision,
	}
}

func toDataSourceSummary(ds *domain.DataSource) DataSourceSummary {
	return DataSourceSummary{
		ID:                 ds.ID,
		Title:              ds.Title,
		Description:        ds.Description,
		SourceType:         string(ds.SourceType),
		Status:             string(ds.Status),
		TotalRawDataCount:  ds.TotalRawDataCount,
		ScheduledDataCount: ds.ScheduledDataCount,
		InstantDataCount:   ds.InstantDataCount,
		CreatedBy:          ds.CreatedBy,
		CreatedAt:          ds.CreatedAt,
		ConfirmedAt:        ds.ConfirmedAt,
		UpdatedAt:          ds.UpdatedAt,
		Tags:               nonNil(ds.Tags),
		PrimaryCategory:    ds.PrimaryCategory,
	}
}

func toBatchResultResponse(r *domain.BatchResult) *BatchResultResponse {
	resp := &BatchResultResponse{
		SuccessCount: r.SuccessCount,
		FailedCount:  r.FailedCount,
		SucceededIDs: nonNil(r.SucceededIDs),
		FailedIDs:    nonNil(r.FailedIDs),
	}
	if len(r.Failures) > 0 {
		resp.Failures = make(map[string]string, len(r.Failures))
		for id, err := range r.Failures {
			resp.Failures[id] = err.Error()
		}
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
