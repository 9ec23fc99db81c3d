package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/softex1/tably-paket1/database"
	"github.com/softex1/tably-paket1/hub"
	"github.com/softex1/tably-paket1/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []hub.Message
}

func (p *recordingPublisher) Publish(msg hub.Message) {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
}

func (p *recordingPublisher) events(name string) []hub.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []hub.Message
	for _, m := range p.msgs {
		if m.Event == name {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	pub      *recordingPublisher
	tables   *TableService
	sessions *SessionService
	calls    *CallService
	gate     *CallGate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	clock := newFakeClock()
	pub := &recordingPublisher{}

	tables := NewTableService(db, pub, "http://tably.test/")
	sessions := NewSessionService(db, tables, 60*time.Second)
	sessions.Now = clock.Now
	calls := NewCallService(db, pub, NewKeyedMutex())
	calls.Now = clock.Now

	return &fixture{
		db:       db,
		clock:    clock,
		pub:      pub,
		tables:   tables,
		sessions: sessions,
		calls:    calls,
		gate:     NewCallGate(sessions, tables, calls),
	}
}

func (f *fixture) seedTable(t *testing.T, code string) *models.Table {
	t.Helper()
	table := models.Table{Code: code, Number: "T-" + code, Location: "Patio", Category: "outdoor"}
	require.NoError(t, f.db.Create(&table).Error)
	return &table
}
