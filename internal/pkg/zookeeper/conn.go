// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"fmt"
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 封装了 ZooKeeper 连接。
type Conn struct {
	conn *zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接。
func Connect(servers []string, sessionTimeout time.Duration) (*Conn, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}
	return &Conn{conn: conn}, nil
}

// EnsurePath 确保一个持久节点存在（逐级创建）。
func (c *Conn) EnsurePath(path string) error {
	exists, _, err := c.conn.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = c.conn.Create(path, []byte{}, 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return err
	}
	return nil
}

func (c *Conn) Close() {
	c.conn.Close()
}
