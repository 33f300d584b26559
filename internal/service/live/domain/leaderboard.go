// internal/service/live/domain/leaderboard.go
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("live session not found")
	ErrInvalidLap      = errors.New("lap update requires a session, a driver and a positive lap time")
)

// LapUpdate 是一条圈速上报，由计时系统经 Kafka 送达。
type LapUpdate struct {
	SessionID  string    `json:"sessionId"`
	DriverID   string    `json:"driverId"`
	DriverName string    `json:"driverName,omitempty"`
	LapTimeMS  int64     `json:"lapTimeMs"`
	LapNumber  int       `json:"lapNumber,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

func (u *LapUpdate) Validate() error {
	if u.SessionID == "" || u.DriverID == "" || u.LapTimeMS <= 0 {
		return ErrInvalidLap
	}
	return nil
}

// Entry 是榜单上的一行。
type Entry struct {
	Position   int    `json:"position"`
	DriverID   string `json:"driverId"`
	DriverName string `json:"driverName,omitempty"`
	BestLapMS  int64  `json:"bestLapMs"`
	LastLapMS  int64  `json:"lastLapMs"`
	Laps       int    `json:"laps"`
}

// Snapshot 是某个场次榜单的一致视图，按最快圈升序。
type Snapshot struct {
	SessionID string    `json:"sessionId"`
	Entries   []Entry   `json:"entries"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LeaderboardStore 持有所有场次的实时榜单状态。
// 状态必须显式地在进程启动时创建并通过这个接口访问，
// 每次成功 Apply 后调用方负责把返回的快照广播给该场次的订阅者。
type LeaderboardStore interface {
	// Apply 合并一条圈速并返回更新后的快照。未知场次会被隐式创建。
	Apply(ctx context.Context, update *LapUpdate) (*Snapshot, error)

	// Snapshot 返回一个场次的当前榜单，未知场次返回 ErrSessionNotFound。
	Snapshot(ctx context.Context, sessionID string) (*Snapshot, error)
}
