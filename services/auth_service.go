package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/utils"
)

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummy compare target so unknown usernames cost the same as real ones
func getDummyHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = utils.HashPassword("tably-not-a-real-password")
	})
	return dummyHash
}

type AuthService struct {
	DB       *gorm.DB
	Attempts AttemptStore
	Secret   []byte
	TokenTTL time.Duration
}

func NewAuthService(db *gorm.DB, attempts AttemptStore, secret string, ttl time.Duration) *AuthService {
	if attempts == nil {
		attempts = NewGormAttemptStore(db, DefaultLoginMaxAttempts, DefaultLoginLockout)
	}
	return &AuthService{
		DB:       db,
		Attempts: attempts,
		Secret:   []byte(secret),
		TokenTTL: ttl,
	}
}

type LoginResult struct {
	Token    string `json:"token"`
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
}

// Login checks the credentials and issues a JWT. Repeated failures lock the
// username for a while.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, utils.InvalidArgument("Username and password are required")
	}

	if remaining, err := s.Attempts.LockedFor(ctx, username); err != nil {
		return nil, err
	} else if remaining > 0 {
		return nil, utils.Locked(remaining, "Account temporarily locked due to too many failed attempts")
	}

	var admin models.Admin
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "lookup admin")
	}

	hash := admin.Password
	if !found {
		hash = getDummyHash()
	}
	if !utils.VerifyPassword(hash, password) || !found {
		loginFailures.Inc()
		locked, err := s.Attempts.RecordFailure(ctx, username)
		if err != nil {
			return nil, err
		}
		utils.InfoLogger.WithFields(logrus.Fields{"username": username}).Warn("failed admin login")
		if locked > 0 {
			return nil, utils.Locked(locked, "Account temporarily locked due to too many failed attempts")
		}
		return nil, utils.Unauthenticated("Invalid username or password")
	}

	if err := s.Attempts.Reset(ctx, username); err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(s.Secret, admin.ID, admin.Username, s.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, AdminID: admin.ID, Username: admin.Username}, nil
}

func (s *AuthService) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&admins).Error; err != nil {
		return nil, errors.Wrap(err, "list admins")
	}
	return admins, nil
}

func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 50 {
		return nil, utils.InvalidArgument("Username must be 3-50 characters")
	}
	if err := utils.ValidatePasswordStrength(password); err != nil {
		return nil, utils.InvalidArgument("%s", err.Error())
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Admin{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "check username")
	}
	if count > 0 {
		return nil, utils.Conflict("Username already exists")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := models.Admin{Username: username, Password: hash}
	if err := s.DB.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, errors.Wrap(err, "create admin")
	}
	utils.InfoLogger.WithFields(logrus.Fields{"username": username}).Info("admin created")
	return &admin, nil
}

func (s *AuthService) getAdmin(ctx context.Context, id uint) (*models.Admin, error) {
	var admin models.Admin
	err := s.DB.WithContext(ctx).First(&admin, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("Admin not found")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "lookup admin %d", id)
	}
	return &admin, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	admin, err := s.getAdmin(ctx, id)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(admin.Password, oldPassword) {
		return utils.PermissionDenied("Current password is incorrect")
	}
	if oldPassword == newPassword {
		return utils.InvalidArgument("New password must be different from the current one")
	}
	if err := utils.ValidatePasswordStrength(newPassword); err != nil {
		return utils.InvalidArgument("%s", err.Error())
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Model(admin).Update("password", hash).Error
	return errors.Wrapf(err, "update password for admin %d", id)
}

// DeleteAdmin removes another admin. The acting admin cannot remove
// themselves.
func (s *AuthService) DeleteAdmin(ctx context.Context, id, actingID uint) error {
	if id == actingID {
		return utils.InvalidArgument("You cannot delete your own account")
	}
	admin, err := s.getAdmin(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(admin).Error; err != nil {
		return errors.Wrapf(err, "delete admin %d", id)
	}
	return nil
}

// VerifyPassword confirms a destructive action with the admin's password.
func (s *AuthService) VerifyPassword(ctx context.Context, adminID uint, password string) error {
	admin, err := s.getAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if password == "" || !utils.VerifyPassword(admin.Password, password) {
		return utils.PermissionDenied("Invalid password")
	}
	return nil
}
