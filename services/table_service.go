package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/softex1/tably-paket1/hub"
	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/utils"
)

const tableCodeAttempts = 5

type TableService struct {
	DB        *gorm.DB
	Publisher Publisher
	PublicURL string
}

func NewTableService(db *gorm.DB, publisher Publisher, publicURL string) *TableService {
	return &TableService{
		DB:        db,
		Publisher: publisherOrNop(publisher),
		PublicURL: strings.TrimRight(publicURL, "/"),
	}
}

type TableInput struct {
	Number   string `json:"number" binding:"required,max=50"`
	Location string `json:"location" binding:"max=255"`
	Category string `json:"category" binding:"max=50"`
}

func newTableCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// CreateTable stores a new table under a freshly generated scan code.
func (s *TableService) CreateTable(ctx context.Context, in TableInput) (*models.Table, error) {
	if strings.TrimSpace(in.Number) == "" {
		return nil, utils.InvalidArgument("Table number is required")
	}

	var code string
	for i := 0; i < tableCodeAttempts; i++ {
		candidate := newTableCode()
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Table{}).Where("code = ?", candidate).Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "check table code")
		}
		if count == 0 {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, errors.New("could not allocate a unique table code")
	}

	table := models.Table{
		Code:     code,
		Number:   strings.TrimSpace(in.Number),
		Location: strings.TrimSpace(in.Location),
		Category: strings.TrimSpace(in.Category),
	}
	if err := s.DB.WithContext(ctx).Create(&table).Error; err != nil {
		return nil, errors.Wrap(err, "create table")
	}

	s.Publisher.Publish(hub.Message{Event: hub.EventTableCreated, Data: &table})
	utils.InfoLogger.WithFields(logrus.Fields{"table": table.Code, "number": table.Number}).Info("table created")
	return &table, nil
}

func (s *TableService) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&tables).Error; err != nil {
		return nil, errors.Wrap(err, "list tables")
	}
	return tables, nil
}

func (s *TableService) GetByCode(ctx context.Context, code string) (*models.Table, error) {
	var table models.Table
	err := s.DB.WithContext(ctx).Where("code = ?", code).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("Table not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup table")
	}
	return &table, nil
}

func (s *TableService) GetByID(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	err := s.DB.WithContext(ctx).First(&table, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("Table not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup table")
	}
	return &table, nil
}

// UpdateTable edits the display fields of a table. The scan code never
// changes.
func (s *TableService) UpdateTable(ctx context.Context, id uint, in TableInput) (*models.Table, error) {
	table, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Number) == "" {
		return nil, utils.InvalidArgument("Table number is required")
	}

	err = s.DB.WithContext(ctx).Model(table).Updates(map[string]interface{}{
		"number":   strings.TrimSpace(in.Number),
		"location": strings.TrimSpace(in.Location),
		"category": strings.TrimSpace(in.Category),
	}).Error
	if err != nil {
		return nil, errors.Wrapf(err, "update table %d", id)
	}

	s.Publisher.Publish(hub.Message{Event: hub.EventTableUpdated, Data: table})
	return table, nil
}

// DeleteTable removes the table together with its calls and sessions in a
// single transaction, so no call outlives its table.
func (s *TableService) DeleteTable(ctx context.Context, id uint) (*models.Table, error) {
	table, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var calls, sessions int64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("table_id = ?", table.ID).Delete(&models.Call{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete calls")
		}
		calls = res.RowsAffected

		res = tx.Where("table_id = ?", table.ID).Delete(&models.Session{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete sessions")
		}
		sessions = res.RowsAffected

		if err := tx.Delete(&models.Table{}, table.ID).Error; err != nil {
			return errors.Wrap(err, "delete table")
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "delete table %d", id)
	}

	s.Publisher.Publish(hub.Message{Event: hub.EventTableDeleted, Data: table})
	utils.InfoLogger.WithFields(logrus.Fields{
		"table":    table.Code,
		"calls":    calls,
		"sessions": sessions,
	}).Info("table deleted")
	return table, nil
}

// QRURL is the link encoded in a table's QR code.
func (s *TableService) QRURL(code string) string {
	return s.PublicURL + "/table/" + code
}
