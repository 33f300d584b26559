// internal/service/live/infrastructure/session_redis.go
package infrastructure

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"paddock/internal/pkg/redis"
)

const sessionTTL = 2 * time.Hour

// SessionManager 在 Redis 里维护 "用户 -> 网关节点" 的映射。
// 多网关部署时，消息路由靠它找到用户连在哪个节点上。
type SessionManager struct {
	rdb *goredis.Client
}

func NewSessionManager(client *redis.Client) *SessionManager {
	return &SessionManager{rdb: client.GetClient()}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("live:session:{%s}", userID)
}

// SetUserGateway 记录用户所在的网关节点。
func (m *SessionManager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return m.rdb.Set(ctx, sessionKey(userID), nodeID, sessionTTL).Err()
}

// GetUserGateway 查询用户所在的网关节点，未找到时返回空串。
func (m *SessionManager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	node, err := m.rdb.Get(ctx, sessionKey(userID)).Result()
	if err == goredis.Nil {
		return "", nil
	}
	return node, err
}

// ClearUserGateway 在连接断开时清理映射。
func (m *SessionManager) ClearUserGateway(ctx context.Context, userID string) error {
	return m.rdb.Del(ctx, sessionKey(userID)).Err()
}
