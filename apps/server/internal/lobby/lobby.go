package lobby

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"bridge-lite/apps/server/internal/ledger"
	"bridge-lite/apps/server/internal/logger"
	"bridge-lite/apps/server/internal/table"
	"bridge-lite/bridge"

	"github.com/google/uuid"
)

var ErrTableNotFound = errors.New("table not found")

// Lobby manages all tables and player assignments
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table

	// Default table config
	defaultConfig table.Config
	ledger        ledger.Service
	log           *slog.Logger

	boardsPlayed atomic.Int64
}

// New creates a new lobby
func New(cfg table.Config, ledgerService ledger.Service) *Lobby {
	return &Lobby{
		tables:        make(map[string]*table.Table),
		defaultConfig: cfg,
		ledger:        ledgerService,
		log:           logger.Component("lobby"),
	}
}

// QuickStart finds a table with a free seat or creates a new one.
func (l *Lobby) QuickStart(userID string, broadcastFn func(userID string, data []byte)) *table.Table {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range l.sortedIDsLocked() {
		t := l.tables[id]
		if t.IsClosed() {
			continue
		}
		if hasFreeSeat(t.View()) {
			l.log.Info("quick start joined existing table", "user_id", userID, "table_id", t.ID)
			return t
		}
	}

	t := l.createLocked(broadcastFn)
	l.log.Info("quick start created table", "user_id", userID, "table_id", t.ID)
	return t
}

// CreateTable always opens a fresh table.
func (l *Lobby) CreateTable(broadcastFn func(userID string, data []byte)) *table.Table {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createLocked(broadcastFn)
}

func (l *Lobby) createLocked(broadcastFn func(userID string, data []byte)) *table.Table {
	tableID := "table_" + uuid.NewString()
	t := table.New(tableID, l.defaultConfig, broadcastFn, l.ledger)
	t.AddBoardEndHook(func(info table.BoardEndInfo) {
		l.boardsPlayed.Add(1)
		l.log.Debug("board finished", "table_id", info.TableID, "board", info.Board, "outcome", info.Outcome.String())
	})
	l.tables[tableID] = t
	return t
}

// GetTable returns a table by ID
func (l *Lobby) GetTable(tableID string) (*table.Table, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.tables[tableID]
	if !ok || t.IsClosed() {
		return nil, ErrTableNotFound
	}
	return t, nil
}

// ListTables returns a view of every open table, ordered by id.
func (l *Lobby) ListTables() []table.View {
	l.mu.RLock()
	defer l.mu.RUnlock()
	views := make([]table.View, 0, len(l.tables))
	for _, id := range l.sortedIDsLocked() {
		if t := l.tables[id]; !t.IsClosed() {
			views = append(views, t.View())
		}
	}
	return views
}

// ReapIdle stops and forgets tables that have had no seated player for ttl.
func (l *Lobby) ReapIdle(ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	reaped := 0
	for id, t := range l.tables {
		if !t.IsIdleFor(ttl) {
			continue
		}
		t.Stop()
		delete(l.tables, id)
		reaped++
		l.log.Info("reaped idle table", "table_id", id)
	}
	return reaped
}

// BoardsPlayed counts completed auctions across all tables since start.
func (l *Lobby) BoardsPlayed() int64 { return l.boardsPlayed.Load() }

// Close stops every table.
func (l *Lobby) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, t := range l.tables {
		t.Stop()
		delete(l.tables, id)
	}
}

func (l *Lobby) sortedIDsLocked() []string {
	ids := make([]string, 0, len(l.tables))
	for id := range l.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func hasFreeSeat(v table.View) bool {
	for _, seat := range bridge.Seats {
		if v.Seats[seat] == "" {
			return true
		}
	}
	return false
}
