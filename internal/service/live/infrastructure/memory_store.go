// internal/service/live/infrastructure/memory_store.go
package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"paddock/internal/service/live/domain"
)

// MemoryLeaderboardStore 是 domain.LeaderboardStore 的进程内实现。
// 状态只存在于网关进程里，重启后由计时系统的增量更新重建。
type MemoryLeaderboardStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

type sessionState struct {
	drivers   map[string]*domain.Entry
	updatedAt time.Time
}

func NewMemoryLeaderboardStore() *MemoryLeaderboardStore {
	return &MemoryLeaderboardStore{
		sessions: make(map[string]*sessionState),
	}
}

// Apply 合并一条圈速，返回按最快圈排序的新快照。
func (s *MemoryLeaderboardStore) Apply(_ context.Context, update *domain.LapUpdate) (*domain.Snapshot, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[update.SessionID]
	if !ok {
		session = &sessionState{drivers: make(map[string]*domain.Entry)}
		s.sessions[update.SessionID] = session
	}

	entry, ok := session.drivers[update.DriverID]
	if !ok {
		entry = &domain.Entry{DriverID: update.DriverID}
		session.drivers[update.DriverID] = entry
	}
	if update.DriverName != "" {
		entry.DriverName = update.DriverName
	}
	entry.LastLapMS = update.LapTimeMS
	entry.Laps++
	if entry.BestLapMS == 0 || update.LapTimeMS < entry.BestLapMS {
		entry.BestLapMS = update.LapTimeMS
	}
	session.updatedAt = time.Now()

	return session.snapshot(update.SessionID), nil
}

// Snapshot 返回一个场次榜单的拷贝。
func (s *MemoryLeaderboardStore) Snapshot(_ context.Context, sessionID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.snapshot(sessionID), nil
}

// snapshot 在持锁状态下构造一份深拷贝，排序并编号名次。
func (st *sessionState) snapshot(sessionID string) *domain.Snapshot {
	entries := make([]domain.Entry, 0, len(st.drivers))
	for _, e := range st.drivers {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestLapMS != entries[j].BestLapMS {
			return entries[i].BestLapMS < entries[j].BestLapMS
		}
		return entries[i].DriverID < entries[j].DriverID
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return &domain.Snapshot{
		SessionID: sessionID,
		Entries:   entries,
		UpdatedAt: st.updatedAt,
	}
}
