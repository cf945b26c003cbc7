package service

import (
	"context"

	"code_practice/internal/common"
	"code_practice/internal/domain/model"
)

// StatsSource is the read side of submissions used for rankings and reports.
type StatsSource interface {
	GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
	StudentStats(ctx context.Context) ([]model.StudentStats, error)
}

type AnalyticsService struct {
	stats StatsSource
}

func NewAnalyticsService(stats StatsSource) *AnalyticsService {
	return &AnalyticsService{stats: stats}
}

func (s *AnalyticsService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	limit, _ = clampPage(limit, 0)
	return s.stats.GetLeaderboard(ctx, limit)
}

func (s *AnalyticsService) StudentStats(ctx context.Context, viewer Viewer) ([]model.StudentStats, error) {
	if !viewer.IsTeacher() {
		return nil, common.Errorf("student analytics are for teachers: %w", common.ErrForbidden)
	}
	return s.stats.StudentStats(ctx)
}
