// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const (
	lockRoot = "/paddock/locks" // 所有分布式锁的根节点

	// 等待前驱节点释放的上限，防止死等
	lockWaitTimeout = 30 * time.Second
)

// DistributedLock 是基于临时顺序节点的 ZooKeeper 分布式锁。
// 典型用法是串行化某个商品在 MySQL 与 Redis 缓存之间的补货同步。
type DistributedLock struct {
	conn     *Conn
	path     string // 锁的路径，例如 /paddock/locks/product-123
	lockNode string // 成功获取锁后，自己创建的节点路径
}

// NewDistributedLock 创建一个针对 resourceID 的锁实例。
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	if err := conn.EnsurePath("/paddock"); err != nil {
		return nil, fmt.Errorf("failed to ensure lock namespace: %w", err)
	}
	if err := conn.EnsurePath(lockRoot); err != nil {
		return nil, fmt.Errorf("failed to ensure lock root: %w", err)
	}

	lockPath := lockRoot + "/" + resourceID
	if err := conn.EnsurePath(lockPath); err != nil {
		return nil, fmt.Errorf("failed to ensure lock path %s: %w", lockPath, err)
	}

	return &DistributedLock{conn: conn, path: lockPath}, nil
}

// Lock 尝试获取锁，获取不到则阻塞等待前驱节点释放。
func (l *DistributedLock) Lock() error {
	// 1. 在锁路径下创建一个临时顺序节点
	nodePath, err := l.conn.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte{}, zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	for {
		// 2. 获取锁路径下的所有子节点并排序
		children, _, err := l.conn.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to get children nodes: %w", err)
		}
		sort.Strings(children)

		// 3. 自己是最小节点则获得锁
		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myNodeName == children[0] {
			return nil
		}

		// 4. 否则监听前一个节点
		prevNodeIndex := -1
		for i, child := range children {
			if child == myNodeName {
				prevNodeIndex = i - 1
				break
			}
		}
		if prevNodeIndex < 0 {
			return errors.New("cannot find own node among children")
		}
		prevNodePath := l.path + "/" + children[prevNodeIndex]

		exists, _, eventChan, err := l.conn.conn.ExistsW(prevNodePath)
		if err != nil {
			return fmt.Errorf("failed to watch previous node: %w", err)
		}
		if !exists {
			// 前驱在设置 watch 前刚好释放了，重新竞争
			continue
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(lockWaitTimeout):
			return errors.New("timeout waiting for lock")
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
