package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/imobiliare-next/internal/constants"
	"github.com/imobiliare-next/internal/logger"
	"github.com/imobiliare-next/internal/metrics"
	"github.com/imobiliare-next/internal/models"
	"github.com/imobiliare-next/internal/repository"
)

// 排名模式
const (
	RankingModeQuery  = "query"
	RankingModeMemory = "memory"
)

// ListingServiceOptions 房源查询服务依赖
type ListingServiceOptions struct {
	AnnouncementRepo repository.AnnouncementRepository
	PaymentRepo      repository.AnnouncementPaymentRepository
	Metrics          *metrics.Metrics
	RankingMode      string
	DefaultPageSize  int
	MaxPageSize      int
}

// ListingService 公开房源查询与推广排名
type ListingService struct {
	announcementRepo repository.AnnouncementRepository
	paymentRepo      repository.AnnouncementPaymentRepository
	metrics          *metrics.Metrics
	rankingMode      string
	defaultPageSize  int
	maxPageSize      int
}

// NewListingService 创建房源查询服务
func NewListingService(opts ListingServiceOptions) *ListingService {
	mode := strings.ToLower(strings.TrimSpace(opts.RankingMode))
	if mode != RankingModeMemory {
		mode = RankingModeQuery
	}
	defaultPageSize := opts.DefaultPageSize
	if defaultPageSize <= 0 {
		defaultPageSize = 25
	}
	maxPageSize := opts.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &ListingService{
		announcementRepo: opts.AnnouncementRepo,
		paymentRepo:      opts.PaymentRepo,
		metrics:          opts.Metrics,
		rankingMode:      mode,
		defaultPageSize:  defaultPageSize,
		maxPageSize:      maxPageSize,
	}
}

// NormalizePage 按服务配置补齐分页参数
func (s *ListingService) NormalizePage(page, pageSize int) (int, int) {
	return repository.NormalizePagination(page, pageSize, s.defaultPageSize, s.maxPageSize)
}

// FindPublicListings 查询公开房源：推广优先，其次最近推广支付时间，再按创建时间倒序
func (s *ListingService) FindPublicListings(_ context.Context, filter repository.ListingFilter) ([]models.Announcement, int64, error) {
	filter.Page, filter.PageSize = s.NormalizePage(filter.Page, filter.PageSize)
	if s.rankingMode == RankingModeQuery {
		rows, total, err := s.announcementRepo.ListRanked(filter)
		if err == nil {
			return rows, total, nil
		}
		s.metrics.IncRankingFallback()
		logger.Warnw("listing_ranked_query_failed", "error", err)
	}
	return s.findRankedInMemory(filter)
}

func (s *ListingService) findRankedInMemory(filter repository.ListingFilter) ([]models.Announcement, int64, error) {
	rows, err := s.announcementRepo.ListFiltered(filter)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	latest, err := s.paymentRepo.LatestPromotionTimes(ids)
	if err != nil {
		return nil, 0, err
	}
	RankListings(rows, latest)

	start, end := repository.PageWindow(len(rows), filter.Page, filter.PageSize)
	return rows[start:end], int64(len(rows)), nil
}

// RankListings 按推广排名规则原地排序
func RankListings(rows []models.Announcement, latestPromotion map[uint]time.Time) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rankedBefore(&rows[i], &rows[j], latestPromotion)
	})
}

func rankedBefore(a, b *models.Announcement, latestPromotion map[uint]time.Time) bool {
	if a.IsPromoted != b.IsPromoted {
		return a.IsPromoted
	}
	// 推广时间只在推广房源之间比较
	if a.IsPromoted {
		aTime, aOK := latestPromotion[a.ID]
		bTime, bOK := latestPromotion[b.ID]
		if aOK != bOK {
			return aOK
		}
		if aOK && !aTime.Equal(bTime) {
			return aTime.After(bTime)
		}
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// GetPublicListing 获取公开房源详情
func (s *ListingService) GetPublicListing(id uint) (*models.Announcement, error) {
	if id == 0 {
		return nil, ErrAnnouncementNotFound
	}
	announcement, err := s.announcementRepo.GetPublicByID(id, constants.AnnouncementStatusActive)
	if err != nil {
		return nil, err
	}
	if announcement == nil {
		return nil, ErrAnnouncementNotFound
	}
	return announcement, nil
}
