package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/constants"
)

var (
	ErrRequestFailed   = errors.New("media request failed")
	ErrResponseInvalid = errors.New("media response invalid")
	ErrKindInvalid     = errors.New("media kind invalid")
)

const (
	defaultAPIBaseURL = "https://api.cloudinary.com"
	defaultTimeout    = 15 * time.Second
	listPageSize      = 500
	deleteChunkSize   = 100
)

// CloudinaryClient Cloudinary Admin API 客户端
type CloudinaryClient struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

// NewCloudinaryClient 根据配置创建客户端
func NewCloudinaryClient(cfg config.MediaConfig) (*CloudinaryClient, error) {
	if !cfg.Configured() {
		return nil, ErrMediaStoreUnavailable
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	timeout := defaultTimeout
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return &CloudinaryClient{
		cloudName:  strings.TrimSpace(cfg.CloudName),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		apiSecret:  strings.TrimSpace(cfg.APISecret),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// NewStore 返回可用的 Store；未配置时回退到 NoopStore
func NewStore(cfg config.MediaConfig) Store {
	client, err := NewCloudinaryClient(cfg)
	if err != nil {
		return NoopStore{}
	}
	return client
}

type listResourcesResponse struct {
	Resources []struct {
		PublicID string `json:"public_id"`
	} `json:"resources"`
	NextCursor string `json:"next_cursor"`
}

// ListResourcesByFolder 列出目录下指定类型的全部资源 public_id
func (c *CloudinaryClient) ListResourcesByFolder(ctx context.Context, folder string, kind string) ([]string, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	prefix := strings.Trim(strings.TrimSpace(folder), "/")
	if prefix == "" {
		return nil, fmt.Errorf("%w: folder is required", ErrRequestFailed)
	}

	ids := make([]string, 0)
	cursor := ""
	for {
		query := url.Values{}
		query.Set("prefix", prefix+"/")
		query.Set("max_results", fmt.Sprintf("%d", listPageSize))
		if cursor != "" {
			query.Set("next_cursor", cursor)
		}
		body, err := c.do(ctx, http.MethodGet, c.resourcePath(kind), query)
		if err != nil {
			return nil, err
		}
		var resp listResourcesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: decode resources failed", ErrResponseInvalid)
		}
		for _, item := range resp.Resources {
			if id := strings.TrimSpace(item.PublicID); id != "" {
				ids = append(ids, id)
			}
		}
		if resp.NextCursor == "" {
			return ids, nil
		}
		cursor = resp.NextCursor
	}
}

// DeleteResources 按 public_id 批量删除资源，单次最多 100 个
func (c *CloudinaryClient) DeleteResources(ctx context.Context, ids []string, kind string) error {
	if err := validateKind(kind); err != nil {
		return err
	}
	for start := 0; start < len(ids); start += deleteChunkSize {
		end := start + deleteChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		query := url.Values{}
		for _, id := range ids[start:end] {
			query.Add("public_ids[]", id)
		}
		if _, err := c.do(ctx, http.MethodDelete, c.resourcePath(kind), query); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFolder 删除空目录（资源需先删除）
func (c *CloudinaryClient) DeleteFolder(ctx context.Context, folder string) error {
	trimmed := strings.Trim(strings.TrimSpace(folder), "/")
	if trimmed == "" {
		return fmt.Errorf("%w: folder is required", ErrRequestFailed)
	}
	path := "/v1_1/" + url.PathEscape(c.cloudName) + "/folders/" + escapeFolder(trimmed)
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *CloudinaryClient) resourcePath(kind string) string {
	return "/v1_1/" + url.PathEscape(c.cloudName) + "/resources/" + kind + "/upload"
}

func (c *CloudinaryClient) do(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s status %d", ErrRequestFailed, method, path, resp.StatusCode)
	}
	return body, nil
}

func validateKind(kind string) error {
	switch kind {
	case constants.MediaKindImage, constants.MediaKindVideo:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrKindInvalid, kind)
	}
}

func escapeFolder(folder string) string {
	parts := strings.Split(folder, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
