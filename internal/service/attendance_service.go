package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/repository"
	"guild-ledger/backend/pkg/events"
	"guild-ledger/backend/pkg/metrics"
)

// AttendanceService 出勤同步业务接口
type AttendanceService interface {
	// Sync 将本周获得物品的参与者标记为已出勤，可重复执行
	Sync(ctx context.Context) (*dto.AttendanceSyncResponse, error)
	// SyncWeek 同步指定周次
	SyncWeek(ctx context.Context, week string) (*dto.AttendanceSyncResponse, error)
}

type attendanceService struct {
	repo      *repository.Repository
	publisher events.Publisher
	metrics   *metrics.Manager
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例，loc 决定周次划分
func NewAttendanceService(
	repo *repository.Repository,
	publisher events.Publisher,
	m *metrics.Manager,
	loc *time.Location,
	logger *zap.Logger,
) AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &attendanceService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		loc:       loc,
		now:       time.Now,
	}
}

func (s *attendanceService) Sync(ctx context.Context) (*dto.AttendanceSyncResponse, error) {
	return s.SyncWeek(ctx, WeekKey(s.now().In(s.loc)))
}

func (s *attendanceService) SyncWeek(ctx context.Context, week string) (*dto.AttendanceSyncResponse, error) {
	start, end, err := WeekWindow(week, s.loc)
	if err != nil {
		return nil, err
	}

	var recorded int
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		ids, err := tx.Loot.ParticipantIDsBetween(ctx, start.UTC(), end.UTC())
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.Attendance.MarkAttended(ctx, id, week); err != nil {
				return err
			}
		}
		recorded = len(ids)
		return nil
	})
	if err != nil {
		s.logger.Error("出勤同步失败", zap.String("week", week), zap.Error(err))
		return nil, err
	}

	s.metrics.AddAttendance(recorded)
	s.logger.Info("出勤同步完成", zap.String("week", week), zap.Int("recorded", recorded))

	resp := &dto.AttendanceSyncResponse{WeekProcessed: week, AttendanceRecorded: recorded}
	publishEvent(ctx, s.publisher, s.logger, events.New(events.AttendanceSynced, week, resp))
	return resp, nil
}
