// Package cleanup は期限切れセッションと一時トークンの自動削除ジョブを提供する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredDeleter はbefore以前に期限切れとなったレコードを削除するインターフェース。
// SessionRepositoryとVerificationRepositoryがそのまま満たす。
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// PurgeRecorder は削除したセッション数を記録するインターフェース。
type PurgeRecorder interface {
	RecordSessionsPurged(count int64)
}

// SessionCleanupJob は期限切れセッションとverificationsを削除するジョブ。
// 冪等で、削除対象がない場合もエラーにならない。
type SessionCleanupJob struct {
	sessions      ExpiredDeleter
	verifications ExpiredDeleter
	recorder      PurgeRecorder
	logger        *slog.Logger
	now           func() time.Time
}

// NewSessionCleanupJob は新しいSessionCleanupJobを生成する。
// verificationsとrecorderはnilでもよい。
func NewSessionCleanupJob(sessions, verifications ExpiredDeleter, recorder PurgeRecorder, logger *slog.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{
		sessions:      sessions,
		verifications: verifications,
		recorder:      recorder,
		logger:        logger,
		now:           time.Now,
	}
}

// Run は現在時刻より前に期限切れとなったセッションとverificationsを削除する。
// 失敗はエラーとして返すだけでログには記録しない。
func (j *SessionCleanupJob) Run(ctx context.Context) error {
	start := j.now()

	sessions, err := j.sessions.DeleteExpired(ctx, start)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	if j.recorder != nil {
		j.recorder.RecordSessionsPurged(sessions)
	}

	var verifications int64
	if j.verifications != nil {
		verifications, err = j.verifications.DeleteExpired(ctx, start)
		if err != nil {
			return fmt.Errorf("failed to delete expired verifications: %w", err)
		}
	}

	j.logger.Info("session cleanup completed",
		slog.Int64("deleted_sessions", sessions),
		slog.Int64("deleted_verifications", verifications),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回Runを実行し、以降intervalごとに繰り返す。
// ctxがキャンセルされるまでブロックする。Runのエラーはログに記録して継続する。
func (j *SessionCleanupJob) Start(ctx context.Context, interval time.Duration) {
	j.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *SessionCleanupJob) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("session cleanup job failed", slog.String("error", err.Error()))
	}
}
