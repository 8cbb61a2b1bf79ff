package services

import (
	"context"
	"sync"
	"time"

	"readit/internal/models"
	"readit/internal/utils"
	"readit/internal/votes"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	rankBatchSize = 50
	rankQueueSize = 1000
)

// RankingService recomputes post hot ranks in the background. Updates for
// the same post are coalesced while it waits in the queue.
type RankingService struct {
	db       *gorm.DB
	ledger   votes.Ledger
	log      zerolog.Logger
	interval time.Duration
	now      func() time.Time

	queue   chan uint
	pending map[uint]bool
	mu      sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRankingService(db *gorm.DB, ledger votes.Ledger, interval time.Duration, log zerolog.Logger) *RankingService {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &RankingService{
		db:       db,
		ledger:   ledger,
		log:      log.With().Str("component", "ranking").Logger(),
		interval: interval,
		now:      time.Now,
		queue:    make(chan uint, rankQueueSize),
		pending:  make(map[uint]bool),
	}
}

// ScheduleUpdate queues postID for a rank refresh without blocking. A full
// queue drops the request.
func (s *RankingService) ScheduleUpdate(postID uint) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		s.log.Warn().Uint("post_id", postID).Msg("rank queue full, dropping update")
	}
}

// Start runs the worker until ctx is cancelled or Stop is called.
func (s *RankingService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.worker(ctx)
	}()
	s.log.Info().Dur("flush_interval", s.interval).Msg("ranking worker started")
}

// Stop cancels the worker and waits for the in-flight batch to finish.
func (s *RankingService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Info().Msg("ranking worker stopped")
}

func (s *RankingService) worker(ctx context.Context) {
	batch := make([]uint, 0, rankBatchSize)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= rankBatchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

// processBatch loads the posts and their votes with one query each and
// writes the new ranks. The ids leave pending before anything is read, so a
// vote landing mid-batch queues a fresh update.
func (s *RankingService) processBatch(ctx context.Context, postIDs []uint) {
	s.mu.Lock()
	for _, id := range postIDs {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	var posts []*models.Post
	err := s.db.WithContext(ctx).
		Select("id", "created_at").
		Where("id IN ?", postIDs).
		Find(&posts).Error
	if err != nil {
		s.log.Error().Err(err).Int("posts", len(postIDs)).Msg("load posts for ranking")
		return
	}
	if len(posts) == 0 {
		return
	}

	if _, err := votes.NewAnnotator(s.ledger, s.log).Annotate(ctx, nil, votes.Items(posts)...); err != nil {
		s.log.Error().Err(err).Int("posts", len(posts)).Msg("load votes for ranking")
		return
	}

	now := s.now()
	for _, p := range posts {
		rank := utils.HotRank(p.VoteScore, p.CreatedAt, now)
		err := s.db.WithContext(ctx).
			Model(&models.Post{}).
			Where("id = ?", p.ID).
			UpdateColumn("hot_rank", rank).Error
		if err != nil {
			s.log.Error().Err(err).Uint("post_id", p.ID).Msg("update hot rank")
		}
	}
	s.log.Debug().Int("posts", len(posts)).Msg("ranks refreshed")
}

// RefreshRecent queues every post created within window plus the current top
// posts, so ranks keep decaying for posts nobody votes on.
func (s *RankingService) RefreshRecent(ctx context.Context, window time.Duration, top int) int {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("created_at >= ?", s.now().Add(-window)).
		Pluck("id", &ids).Error
	if err != nil {
		s.log.Error().Err(err).Msg("list recent posts")
	}

	var topIDs []uint
	if top > 0 {
		err = s.db.WithContext(ctx).
			Model(&models.Post{}).
			Order("hot_rank DESC").
			Limit(top).
			Pluck("id", &topIDs).Error
		if err != nil {
			s.log.Error().Err(err).Msg("list top posts")
		}
	}

	seen := make(map[uint]bool, len(ids)+len(topIDs))
	for _, id := range append(ids, topIDs...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		s.ScheduleUpdate(id)
	}
	return len(seen)
}

// StartPeriodicRefresh calls RefreshRecent every period until ctx ends.
func (s *RankingService) StartPeriodicRefresh(ctx context.Context, period, window time.Duration) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := s.RefreshRecent(ctx, window, 30)
				s.log.Info().Int("posts", n).Msg("periodic rank refresh queued")
			}
		}
	}()
}
