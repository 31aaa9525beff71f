package service

import (
	"context"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/media"
	"github.com/imobiliare-next/internal/metrics"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"
)

const defaultCleanupRetention = 24 * time.Hour

var mediaKinds = []string{constants.MediaKindImage, constants.MediaKindVideo}

// CleanupService 清理长期未续费房源
type CleanupService struct {
	announcementRepo repository.AnnouncementRepository
	media            media.Store
	metrics          *metrics.Metrics
	mediaRoot        string
}

// NewCleanupService 创建清理服务
func NewCleanupService(announcementRepo repository.AnnouncementRepository, store media.Store, m *metrics.Metrics, mediaRoot string) *CleanupService {
	if store == nil {
		store = media.NoopStore{}
	}
	return &CleanupService{
		announcementRepo: announcementRepo,
		media:            store,
		metrics:          m,
		mediaRoot:        mediaRoot,
	}
}

// RunSweep 删除创建时间早于 now-retention 的待续费房源，返回成功删除数量
func (s *CleanupService) RunSweep(ctx context.Context, now time.Time, retention time.Duration) (deleted int, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveSweep("cleanup", time.Since(started), err)
		s.metrics.AddCleanupDeleted(deleted)
	}()
	if now.IsZero() {
		now = time.Now()
	}
	if retention <= 0 {
		retention = defaultCleanupRetention
	}
	cutoff := now.Add(-retention)

	stale, err := s.announcementRepo.ListPendingCreatedBefore(cutoff)
	if err != nil {
		return 0, err
	}
	logger.Infow("cleanup_sweep_started", "cutoff", cutoff, "candidates", len(stale))

	for i := range stale {
		if err = ctx.Err(); err != nil {
			return deleted, err
		}
		announcement := &stale[i]
		s.purgeMedia(ctx, announcement)
		if delErr := s.announcementRepo.DeleteWithPayments(announcement.ID); delErr != nil {
			logger.Errorw("cleanup_delete_failed", "announcement_id", announcement.ID, "error", delErr)
			continue
		}
		deleted++
		logger.Infow("cleanup_announcement_deleted", "announcement_id", announcement.ID)
	}

	logger.Infow("cleanup_sweep_done", "deleted", deleted, "candidates", len(stale))
	return deleted, nil
}

// 媒体删除失败只记录日志
func (s *CleanupService) purgeMedia(ctx context.Context, announcement *models.Announcement) {
	folder := announcement.MediaFolder(s.mediaRoot)
	for _, kind := range mediaKinds {
		ids, err := s.media.ListResourcesByFolder(ctx, folder, kind)
		if err != nil {
			logger.Warnw("cleanup_media_list_failed", "announcement_id", announcement.ID, "kind", kind, "error", err)
			continue
		}
		if len(ids) == 0 {
			continue
		}
		if err := s.media.DeleteResources(ctx, ids, kind); err != nil {
			logger.Warnw("cleanup_media_delete_failed", "announcement_id", announcement.ID, "kind", kind, "count", len(ids), "error", err)
		}
	}
	if err := s.media.DeleteFolder(ctx, folder); err != nil {
		logger.Warnw("cleanup_media_folder_delete_failed", "announcement_id", announcement.ID, "folder", folder, "error", err)
	}
}
