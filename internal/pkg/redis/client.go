// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 客户端，并维护一个按名字注册的 Lua 脚本表。
// 脚本在服务初始化时注册，运行期只通过名字引用，避免在业务代码里散落脚本文本。
type Client struct {
	rdb *goredis.Client

	mu      sync.RWMutex
	scripts map[string]*goredis.Script
}

// NewClient 创建一个新的 Redis 客户端。
func NewClient(addr string) *Client {
	rdb := goredis.NewClient(&goredis.Options{
		Addr: addr,
	})
	return &Client{
		rdb:     rdb,
		scripts: make(map[string]*goredis.Script),
	}
}

// LoadScriptFromContent 按名字注册一段 Lua 脚本。
// go-redis 的 Script 会优先走 EVALSHA，未命中时自动回退到 EVAL。
func (c *Client) LoadScriptFromContent(name, content string) error {
	if name == "" || content == "" {
		return fmt.Errorf("script name and content must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.scripts[name]; exists {
		return fmt.Errorf("script %q is already registered", name)
	}
	c.scripts[name] = goredis.NewScript(content)
	return nil
}

// RunScript 执行一个已注册的脚本。
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("script %q is not registered", name)
	}
	return script.Run(ctx, c.rdb, keys, args...).Result()
}

// GetClient 暴露底层客户端，供需要 pipeline 等原生能力的调用方使用。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
