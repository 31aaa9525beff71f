package media

import (
	"context"
	"errors"
)

// ErrMediaStoreUnavailable 媒体存储未配置或不可用
var ErrMediaStoreUnavailable = errors.New("media store unavailable")

// Store 媒体资源存储，按房源目录组织图片与视频。
type Store interface {
	ListResourcesByFolder(ctx context.Context, folder string, kind string) ([]string, error)
	DeleteResources(ctx context.Context, ids []string, kind string) error
	DeleteFolder(ctx context.Context, folder string) error
}

// NoopStore 未配置媒体存储时使用，所有操作返回 ErrMediaStoreUnavailable。
type NoopStore struct{}

// ListResourcesByFolder 返回不可用错误
func (NoopStore) ListResourcesByFolder(context.Context, string, string) ([]string, error) {
	return nil, ErrMediaStoreUnavailable
}

// DeleteResources 返回不可用错误
func (NoopStore) DeleteResources(context.Context, []string, string) error {
	return ErrMediaStoreUnavailable
}

// DeleteFolder 返回不可用错误
func (NoopStore) DeleteFolder(context.Context, string) error {
	return ErrMediaStoreUnavailable
}
