// Package services implements the org-chart operations on top of the
// persistence, picture storage and locking collaborators.
package services

import (
	"context"
	"log/slog"

	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/lock"
	"orgchart-backend/pkg/metrics"
)

// PictureSaver stores an uploaded picture and returns its public URL.
type PictureSaver interface {
	SavePicture(ctx context.Context, prefix string, raw []byte) (string, error)
}

// Service 组织架构业务逻辑
type Service struct {
	db       database.DatabaseInterface
	pictures PictureSaver
	locker   lock.Locker
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithPictures 设置图片存储
func WithPictures(p PictureSaver) Option {
	return func(s *Service) { s.pictures = p }
}

// WithLocker 设置组长分配锁（默认进程内锁）
func WithLocker(l lock.Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger 设置日志
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New 创建业务服务
func New(db database.DatabaseInterface, opts ...Option) *Service {
	s := &Service{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = lock.NewMemoryLocker()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// HealthCheck pings the persistence backend.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func (s *Service) savePicture(ctx context.Context, prefix string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	if s.pictures == nil {
		return "", InternalError(errNoPictureStore)
	}
	url, err := s.pictures.SavePicture(ctx, prefix, raw)
	if err != nil {
		return "", classifyPictureError(err)
	}
	s.metrics.PictureUploaded()
	return url, nil
}
