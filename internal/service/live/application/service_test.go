// internal/service/live/application/service_test.go
package application_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"paddock/internal/service/live/application"
	"paddock/internal/service/live/domain"
	"paddock/internal/service/live/infrastructure"
)

type recordingBroadcaster struct {
	sessions []string
	payloads [][]byte
}

func (b *recordingBroadcaster) Broadcast(sessionID string, payload []byte) {
	b.sessions = append(b.sessions, sessionID)
	b.payloads = append(b.payloads, payload)
}

func TestHandleLapUpdate_BroadcastsEveryAcceptedLap(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	service := application.NewLiveService(infrastructure.NewMemoryLeaderboardStore(), broadcaster, otel.Tracer("test"))

	err := service.HandleLapUpdate(context.Background(), &domain.LapUpdate{
		SessionID: "race-1", DriverID: "d1", LapTimeMS: 92500,
	})
	require.NoError(t, err)
	err = service.HandleLapUpdate(context.Background(), &domain.LapUpdate{
		SessionID: "race-1", DriverID: "d2", LapTimeMS: 91000,
	})
	require.NoError(t, err)

	// 每条被接受的圈速都触发一次该场次的广播
	require.Equal(t, []string{"race-1", "race-1"}, broadcaster.sessions)

	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal(broadcaster.payloads[1], &snapshot))
	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, "d2", snapshot.Entries[0].DriverID)
}

func TestHandleLapUpdate_InvalidLapIsNotBroadcast(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	service := application.NewLiveService(infrastructure.NewMemoryLeaderboardStore(), broadcaster, otel.Tracer("test"))

	err := service.HandleLapUpdate(context.Background(), &domain.LapUpdate{
		SessionID: "race-1", DriverID: "d1", LapTimeMS: -5,
	})
	require.ErrorIs(t, err, domain.ErrInvalidLap)
	assert.Empty(t, broadcaster.sessions)
}

func TestSnapshot_UnknownSession(t *testing.T) {
	service := application.NewLiveService(infrastructure.NewMemoryLeaderboardStore(), &recordingBroadcaster{}, otel.Tracer("test"))

	_, err := service.Snapshot(context.Background(), "race-404")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}
