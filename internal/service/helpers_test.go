package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"store-traffic-service/internal/model"
	"store-traffic-service/internal/repository"
)

var testLog = zerolog.New(io.Discard)

// sqliteStore runs the real repository on an in-memory database. Migrate
// uses AutoMigrate because the production DDL is postgres specific.
type sqliteStore struct {
	*repository.TrafficRepository
	db *gorm.DB
}

func (s *sqliteStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&model.TrafficEvent{})
}

func newSQLiteStore(t *testing.T) *sqliteStore {
	t.Helper()

	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(&model.TrafficEvent{}))
	return &sqliteStore{TrafficRepository: repository.NewTrafficRepository(database), db: database}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []model.TrafficEvent
	err    error
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, event model.TrafficEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return b.err
}

func (b *recordingBroadcaster) Events() []model.TrafficEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.TrafficEvent(nil), b.events...)
}

type recordingSink struct {
	events []model.TrafficEvent
	err    error
}

func (s *recordingSink) Persist(_ context.Context, event model.TrafficEvent) error {
	s.events = append(s.events, event)
	return s.err
}

// scriptedSampler replays fixed draws and records the upper bound of each call.
type scriptedSampler struct {
	draws  []int
	uppers []int
}

func (s *scriptedSampler) Draw(upper int) int {
	s.uppers = append(s.uppers, upper)
	if len(s.draws) == 0 {
		return 0
	}
	v := s.draws[0]
	s.draws = s.draws[1:]
	return v
}

type fakeHistory struct {
	totals []model.StoreTotals
	err    error
}

func (h *fakeHistory) TotalsByStore(context.Context, []int) ([]model.StoreTotals, error) {
	return h.totals, h.err
}

type fakeWriter struct {
	mu         sync.Mutex
	createErr  error
	pingErr    error
	migrateErr error
	created    []model.TrafficEvent
	migrations int
}

func (w *fakeWriter) Create(_ context.Context, event *model.TrafficEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.createErr != nil {
		return w.createErr
	}
	w.created = append(w.created, *event)
	return nil
}

func (w *fakeWriter) Ping(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pingErr
}

func (w *fakeWriter) Migrate(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.migrations++
	return w.migrateErr
}

func (w *fakeWriter) set(fn func(w *fakeWriter)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w)
}

var errBoom = errors.New("boom")
