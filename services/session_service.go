package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/utils"
)

// SessionService issues and checks the short-lived sessions a customer gets
// from scanning a table's QR code.
type SessionService struct {
	DB     *gorm.DB
	Tables *TableService
	TTL    time.Duration
	Now    func() time.Time
}

func NewSessionService(db *gorm.DB, tables *TableService, ttl time.Duration) *SessionService {
	return &SessionService{
		DB:     db,
		Tables: tables,
		TTL:    ttl,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession mints a session for the table with the given code. Other
// sessions of the same table are left alone.
func (s *SessionService) CreateSession(ctx context.Context, code string) (*models.Session, error) {
	table, err := s.Tables.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	session := models.Session{
		Token:     uuid.NewString(),
		TableID:   table.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
		Active:    true,
	}
	if err := s.DB.WithContext(ctx).Omit("Table").Create(&session).Error; err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	session.Table = *table
	sessionsCreated.Inc()

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":      table.Code,
		"expires_at": session.ExpiresAt,
	}).Info("session created")
	return &session, nil
}

// ValidateSession reports whether token names a usable session. An active
// session found past its expiry is switched off on the way out.
func (s *SessionService) ValidateSession(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	var session models.Session
	err := s.DB.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "lookup session")
	}

	now := s.Now()
	if session.Valid(now) {
		return true, nil
	}
	if session.Active {
		if err := s.ExpireSession(ctx, &session); err != nil {
			return false, err
		}
	}
	return false, nil
}

// GetSessionByToken returns the session without checking validity.
func (s *SessionService) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := s.DB.WithContext(ctx).Preload("Table").Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("Session not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup session")
	}
	return &session, nil
}

// ExpireSession switches the session off. Calling it again is a no-op.
func (s *SessionService) ExpireSession(ctx context.Context, session *models.Session) error {
	err := s.DB.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", session.ID).
		Update("active", false).Error
	if err != nil {
		return errors.Wrapf(err, "expire session %d", session.ID)
	}
	session.Active = false
	return nil
}

func (s *SessionService) ExpireSessionByID(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	err := s.DB.WithContext(ctx).Preload("Table").First(&session, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("Session not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup session")
	}
	if err := s.ExpireSession(ctx, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListActiveSessions returns sessions that can still authorize calls.
func (s *SessionService) ListActiveSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.WithContext(ctx).Preload("Table").
		Where("active = ? AND expires_at > ?", true, s.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	return sessions, nil
}

// DeactivateExpired marks every active session at or past its expiry as
// inactive and returns how many rows changed.
func (s *SessionService) DeactivateExpired(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Session{}).
		Where("active = ? AND expires_at <= ?", true, s.Now()).
		Update("active", false)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "deactivate expired sessions")
	}
	return res.RowsAffected, nil
}

// SweepExpired deletes sessions whose expiry is strictly before now,
// whatever their active flag.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at < ?", s.Now()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "sweep expired sessions")
	}
	return res.RowsAffected, nil
}
