// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Config 是整个仓库共享的配置结构。
// 来源优先级: 环境变量 > YAML 文件 > 默认值。
type Config struct {
	App struct {
		// StockBackend 选择结账提交使用的库存后端: "mysql" 或 "redis"
		StockBackend string `yaml:"stockBackend"`
		// InventoryMode 选择库存读取方式: "local"(直连存储) 或 "http"(走 inventory-service)
		InventoryMode string `yaml:"inventoryMode"`
		// ProcessingTimeoutMs 单次结账调用的处理超时
		ProcessingTimeoutMs int `yaml:"processingTimeoutMs"`
		// PurchasePolicies 是一组 CEL 表达式，全部为 true 才允许结账
		PurchasePolicies []string `yaml:"purchasePolicies"`
	} `yaml:"app"`

	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Mysql struct {
			Addr     string `yaml:"addr"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
		} `yaml:"kafka"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Nacos struct {
			ServerAddrs string `yaml:"serverAddrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`
}

var currentConfig atomic.Pointer[Config]

// Init 加载配置，必须在 StartService 之前调用。
// 配置文件路径由 CONFIG_PATH 指定，缺省为 configs/config.yaml。
func Init() {
	cfg, err := loadConfig(getEnv("CONFIG_PATH", "configs/config.yaml"))
	if err != nil {
		panic(fmt.Sprintf("bootstrap: failed to load config: %v", err))
	}
	currentConfig.Store(cfg)
}

// GetCurrentConfig 返回当前生效的配置。
func GetCurrentConfig() *Config {
	cfg := currentConfig.Load()
	if cfg == nil {
		panic("bootstrap: config is not initialized, call bootstrap.Init() first")
	}
	return cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid yaml in %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 环境变量覆盖，便于容器化部署时不改文件
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Mysql.Addr = getEnv("MYSQL_ADDR", cfg.Infra.Mysql.Addr)
	cfg.Infra.Mysql.User = getEnv("MYSQL_USER", cfg.Infra.Mysql.User)
	cfg.Infra.Mysql.Password = getEnv("MYSQL_PASSWORD", cfg.Infra.Mysql.Password)
	cfg.Infra.Mysql.Database = getEnv("MYSQL_DATABASE", cfg.Infra.Mysql.Database)
	cfg.Infra.Redis.Addr = getEnv("REDIS_ADDR", cfg.Infra.Redis.Addr)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
	cfg.App.StockBackend = getEnv("STOCK_BACKEND", cfg.App.StockBackend)
	cfg.App.InventoryMode = getEnv("INVENTORY_MODE", cfg.App.InventoryMode)

	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.StockBackend = "mysql"
	cfg.App.InventoryMode = "local"
	cfg.App.ProcessingTimeoutMs = 5000
	cfg.App.PurchasePolicies = []string{
		"total_quantity <= 100",
		"lines.all(l, l.quantity <= 20)",
	}
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Mysql.Addr = "localhost:3306"
	cfg.Infra.Mysql.User = "root"
	cfg.Infra.Mysql.Password = "root"
	cfg.Infra.Mysql.Database = "paddock"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

// getEnv 从环境变量读取配置，未设置时返回回退值。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
