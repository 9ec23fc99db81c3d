package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/softex1/tably-paket1/hub"
	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/utils"
)

const (
	DefaultCallCooldown   = 3 * time.Minute
	DefaultCallStaleAfter = 10 * time.Minute
)

// CallService creates, de-duplicates and resolves service calls.
type CallService struct {
	DB         *gorm.DB
	Publisher  Publisher
	Locker     Locker
	Cooldown   time.Duration
	StaleAfter time.Duration
	Now        func() time.Time
}

func NewCallService(db *gorm.DB, publisher Publisher, locker Locker) *CallService {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &CallService{
		DB:         db,
		Publisher:  publisherOrNop(publisher),
		Locker:     locker,
		Cooldown:   DefaultCallCooldown,
		StaleAfter: DefaultCallStaleAfter,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateCall raises a call of type t for table. A call of the same type
// within the cooldown is rejected; an unresolved one older than StaleAfter
// is resolved before the new call is stored.
func (s *CallService) CreateCall(ctx context.Context, table *models.Table, t models.CallType) (*models.Call, error) {
	unlock, err := s.Locker.Lock(ctx, callLockKey(table.ID, t))
	if err != nil {
		return nil, errors.Wrap(err, "lock call key")
	}
	defer unlock()

	now := s.Now()
	var stale *models.Call

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "begin call transaction")
	}

	var last models.Call
	err = tx.Where("table_id = ? AND type = ? AND resolved = ?", table.ID, t, false).
		Order("created_at DESC").Order("id DESC").
		First(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		tx.Rollback()
		return nil, errors.Wrap(err, "lookup last call")
	default:
		elapsed := now.Sub(last.CreatedAt)
		if elapsed < s.Cooldown {
			tx.Rollback()
			callsRateLimited.WithLabelValues(string(t)).Inc()
			return nil, utils.RateLimited(s.Cooldown-elapsed,
				"You can only call %s once every %s.",
				callLabel(t), cooldownText(s.Cooldown))
		}
		if elapsed >= s.StaleAfter {
			if err := tx.Model(&last).Update("resolved", true).Error; err != nil {
				tx.Rollback()
				return nil, errors.Wrapf(err, "auto-resolve call %d", last.ID)
			}
			last.Resolved = true
			last.Table = *table
			stale = &last
		}
	}

	call := models.Call{
		TableID:   table.ID,
		Type:      t,
		Resolved:  false,
		CreatedAt: now,
	}
	if err := tx.Omit(clause.Associations).Create(&call).Error; err != nil {
		tx.Rollback()
		return nil, errors.Wrap(err, "create call")
	}
	if err := tx.Commit().Error; err != nil {
		return nil, errors.Wrap(err, "commit call")
	}
	call.Table = *table

	if stale != nil {
		callsResolved.WithLabelValues("stale").Inc()
		s.Publisher.Publish(hub.Message{Event: hub.EventCallResolved, Data: stale})
	}
	callsCreated.WithLabelValues(string(t)).Inc()
	s.Publisher.Publish(hub.Message{Event: hub.EventCallCreated, Data: &call})

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":         table.Code,
		"type":          t,
		"call_id":       call.ID,
		"auto_resolved": stale != nil,
	}).Info("call created")
	return &call, nil
}

// ListActiveCalls returns every unresolved call, newest first.
func (s *CallService) ListActiveCalls(ctx context.Context) ([]models.Call, error) {
	var calls []models.Call
	err := s.DB.WithContext(ctx).Preload("Table").
		Where("resolved = ?", false).
		Order("created_at DESC").Order("id DESC").
		Find(&calls).Error
	if err != nil {
		return nil, errors.Wrap(err, "list active calls")
	}
	return calls, nil
}

// ListRecentActiveCalls returns unresolved calls created within window.
func (s *CallService) ListRecentActiveCalls(ctx context.Context, window time.Duration) ([]models.Call, error) {
	if window <= 0 {
		return nil, utils.InvalidArgument("window must be positive")
	}
	since := s.Now().Add(-window)

	var calls []models.Call
	err := s.DB.WithContext(ctx).Preload("Table").
		Where("resolved = ? AND created_at > ?", false, since).
		Order("created_at DESC").Order("id DESC").
		Find(&calls).Error
	if err != nil {
		return nil, errors.Wrap(err, "list recent calls")
	}
	return calls, nil
}

// Resolve marks the call resolved and publishes it once.
func (s *CallService) Resolve(ctx context.Context, id uint) (*models.Call, error) {
	var call models.Call
	err := s.DB.WithContext(ctx).Preload("Table").First(&call, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("Call not found")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "lookup call %d", id)
	}

	if err := s.DB.WithContext(ctx).Model(&call).Update("resolved", true).Error; err != nil {
		return nil, errors.Wrapf(err, "resolve call %d", id)
	}
	call.Resolved = true

	callsResolved.WithLabelValues("admin").Inc()
	s.Publisher.Publish(hub.Message{Event: hub.EventCallResolved, Data: &call})
	return &call, nil
}

func callLabel(t models.CallType) string {
	switch t {
	case models.CallTypeWaiter:
		return "waiter"
	case models.CallTypeBill:
		return "bill"
	default:
		return string(t)
	}
}

// cooldownText renders whole minutes as words and anything else as a
// duration string.
func cooldownText(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		if m := int(d / time.Minute); m != 1 {
			return fmt.Sprintf("%d minutes", m)
		}
		return "1 minute"
	}
	return d.Round(time.Second).String()
}
