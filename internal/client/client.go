package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"datacuration/internal/service"

	"github.com/sony/gobreaker"
)

const basePath = "/api/v1/data-sources"

// Config 客户端配置
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// APIError 服务端返回的错误
type APIError struct {
	StatusCode int
	Reason     string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Detail)
}

// envelope 统一响应格式
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

// Client 数据源服务 HTTP 客户端，不做重试
type Client struct {
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
}

// New 创建客户端
func New(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		circuitBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "datasource-client",
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
		}),
	}
}

// Create 创建数据源
func (c *Client) Create(ctx context.Context, req *service.CreateDataSourceRequest) (*service.DataSourceResponse, error) {
	var out service.DataSourceResponse
	if _, err := c.do(ctx, http.MethodPost, basePath+"/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get 获取数据源
func (c *Client) Get(ctx context.Context, id string) (*service.DataSourceResponse, error) {
	var out service.DataSourceResponse
	if _, err := c.do(ctx, http.MethodGet, dataSourcePath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List 列出数据源
func (c *Client) List(ctx context.Context, req *service.ListDataSourcesRequest) (*service.ListDataSourcesResponse, error) {
	query := url.Values{}
	set := func(key, value string) {
		if value != "" {
			query.Set(key, value)
		}
	}
	set("created_by", req.CreatedBy)
	set("status", req.Status)
	set("source_type", req.SourceType)
	set("start_date", req.StartDate)
	set("end_date", req.EndDate)
	set("primary_category", req.PrimaryCategory)
	set("secondary_category", req.SecondaryCategory)
	set("tertiary_category", req.TertiaryCategory)
	if req.Limit != nil {
		query.Set("limit", strconv.Itoa(*req.Limit))
	}
	if req.Skip != 0 {
		query.Set("skip", strconv.Itoa(req.Skip))
	}

	var out service.ListDataSourcesResponse
	if _, err := c.do(ctx, http.MethodGet, basePath+"/", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateInfo 更新基础信息
func (c *Client) UpdateInfo(ctx context.Context, id string, req *service.UpdateInfoRequest) (string, error) {
	return c.do(ctx, http.MethodPut, dataSourcePath(id)+"/info", nil, req, nil)
}

// UpdateContent 更新编辑内容
func (c *Client) UpdateContent(ctx context.Context, id string, req *service.UpdateContentRequest) (string, error) {
	return c.do(ctx, http.MethodPut, dataSourcePath(id)+"/content", nil, req, nil)
}

// Delete 删除数据源
func (c *Client) Delete(ctx context.Context, id, deletedBy string) (string, error) {
	return c.do(ctx, http.MethodDelete, dataSourcePath(id), url.Values{"deleted_by": {deletedBy}}, nil, nil)
}

// AddRawData 添加原始数据
func (c *Client) AddRawData(ctx context.Context, id string, req *service.AddRawDataRequest) (string, error) {
	return c.do(ctx, http.MethodPost, dataSourcePath(id)+"/raw-data", nil, req, nil)
}

// RemoveRawData 移除原始数据
func (c *Client) RemoveRawData(ctx context.Context, id string, req *service.RemoveRawDataRequest) (string, error) {
	return c.do(ctx, http.MethodDelete, dataSourcePath(id)+"/raw-data", nil, req, nil)
}

// Confirm 确定数据源
func (c *Client) Confirm(ctx context.Context, id string, req *service.ConfirmRequest) (string, error) {
	return c.do(ctx, http.MethodPost, dataSourcePath(id)+"/confirm", nil, req, nil)
}

// Revert 恢复为草稿
func (c *Client) Revert(ctx context.Context, id string, req *service.RevertRequest) (string, error) {
	return c.do(ctx, http.MethodPost, dataSourcePath(id)+"/revert", nil, req, nil)
}

// BatchArchive 批量留存
func (c *Client) BatchArchive(ctx context.Context, req *service.BatchOperationRequest) (*service.BatchResultResponse, error) {
	var out service.BatchResultResponse
	if _, err := c.do(ctx, http.MethodPost, basePath+"/batch/archive", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchDelete 批量删除
func (c *Client) BatchDelete(ctx context.Context, req *service.BatchOperationRequest) (*service.BatchResultResponse, error) {
	var out service.BatchResultResponse
	if _, err := c.do(ctx, http.MethodPost, basePath+"/batch/delete", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func dataSourcePath(id string) string {
	return basePath + "/" + url.PathEscape(id)
}

// do 发送请求并解析统一响应，返回响应消息；只有网络错误和5xx计入熔断
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (string, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal request: %w", err)
		}
	}

	type rawResponse struct {
		status int
		body   []byte
	}

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		raw := &rawResponse{status: resp.StatusCode, body: data}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, decodeError(raw.status, raw.body)
		}
		return raw, nil
	})
	if err != nil {
		return "", err
	}

	raw := result.(*rawResponse)
	if raw.status >= http.StatusBadRequest {
		return "", decodeError(raw.status, raw.body)
	}

	var env envelope
	if err := json.Unmarshal(raw.body, &env); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return env.Message, nil
}

func decodeError(status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Detail == "" {
		return &APIError{StatusCode: status, Detail: strings.TrimSpace(string(body))}
	}
	return &APIError{StatusCode: status, Reason: env.Reason, Detail: env.Detail}
}
