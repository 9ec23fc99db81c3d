package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/softex1/tably-paket1/utils"
)

const DefaultSweepInterval = 5 * time.Minute

// SessionSweeper periodically switches off and then deletes expired
// sessions. Runs never overlap.
type SessionSweeper struct {
	Sessions  *SessionService
	Interval  time.Duration
	scheduler *gocron.Scheduler
}

func NewSessionSweeper(sessions *SessionService, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SessionSweeper{Sessions: sessions, Interval: interval}
}

func (w *SessionSweeper) Start() error {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(w.Interval).Do(w.run); err != nil {
		return errors.Wrap(err, "schedule session sweep")
	}
	s.StartAsync()
	w.scheduler = s
	utils.InfoLogger.Infof("session sweeper started, interval %s", w.Interval)
	return nil
}

func (w *SessionSweeper) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
		w.scheduler = nil
	}
}

func (w *SessionSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, _, err := w.RunOnce(ctx); err != nil {
		utils.ErrorLogger.Errorf("session sweep failed: %+v", err)
	}
}

// RunOnce performs a single sweep and returns how many sessions were
// deactivated and deleted.
func (w *SessionSweeper) RunOnce(ctx context.Context) (deactivated, deleted int64, err error) {
	deactivated, err = w.Sessions.DeactivateExpired(ctx)
	if err != nil {
		return 0, 0, err
	}
	deleted, err = w.Sessions.SweepExpired(ctx)
	if err != nil {
		return deactivated, 0, err
	}
	sessionsSwept.Add(float64(deleted))

	if deactivated > 0 || deleted > 0 {
		utils.InfoLogger.WithFields(logrus.Fields{
			"deactivated": deactivated,
			"deleted":     deleted,
		}).Info("session sweep finished")
	}
	return deactivated, deleted, nil
}
