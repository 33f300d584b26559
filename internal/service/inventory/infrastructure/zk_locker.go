// internal/service/inventory/infrastructure/zk_locker.go
package infrastructure

import (
	"context"

	"paddock/internal/pkg/logger"
	"paddock/internal/pkg/zookeeper"
	"paddock/internal/service/inventory/domain"
)

// ZookeeperLocker 用 ZooKeeper 分布式锁实现 domain.Locker。
// 同一商品的补货在所有副本之间互斥。
type ZookeeperLocker struct {
	conn *zookeeper.Conn
}

func NewZookeeperLocker(conn *zookeeper.Conn) *ZookeeperLocker {
	return &ZookeeperLocker{conn: conn}
}

func (l *ZookeeperLocker) WithLock(ctx context.Context, resourceID string, fn func() error) error {
	lock, err := zookeeper.NewDistributedLock(l.conn, resourceID)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("resource", resourceID).Msg("failed to release distributed lock")
		}
	}()
	return fn()
}

var _ domain.Locker = (*ZookeeperLocker)(nil)
