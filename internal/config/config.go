// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找，敏感项可由环境变量（.env）覆盖
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
	"github.com/joho/godotenv"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName   string `toml:"appName"`   // 应用名称，用于日志标识等
	Host      string `toml:"host"`      // 服务器监听地址，如 "0.0.0.0"
	Port      int    `toml:"port"`      // 服务器监听端口，如 8000
	Mode      string `toml:"mode"`      // 运行模式：dev / release
	EnableTLS bool   `toml:"enableTLS"` // 是否启用 HTTP -> HTTPS 重定向
	// 可信反向代理（IP 或 CIDR），只有来自这些地址的 X-Forwarded-For 才被采信
	// 为空时一律取连接的对端地址
	TrustedProxies []string `toml:"trustedProxies"`
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`         // MySQL 服务器地址
	Port         int    `toml:"port"`         // MySQL 端口，默认 3306
	User         string `toml:"user"`         // 数据库用户名
	Password     string `toml:"password"`     // 数据库密码
	DatabaseName string `toml:"databaseName"` // 数据库名称
	MaxOpenConns int    `toml:"maxOpenConns"` // 连接池最大连接数
	MaxIdleConns int    `toml:"maxIdleConns"` // 连接池最大空闲连接数
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host         string `toml:"host"`         // Redis 服务器地址
	Port         int    `toml:"port"`         // Redis 端口，默认 6379
	Password     string `toml:"password"`     // Redis 密码，无密码留空
	Db           int    `toml:"db"`           // Redis 数据库编号，默认 0
	PoolSize     int    `toml:"poolSize"`     // 连接池大小
	WorkerNum    int    `toml:"workerNum"`    // 异步缓存任务 Worker 数
	TaskChanSize int    `toml:"taskChanSize"` // 异步缓存任务缓冲区
}

// AuthCodeConfig 短信服务配置（阿里云 SMS）
type AuthCodeConfig struct {
	AccessKeyID        string `toml:"accessKeyID"`        // 阿里云 AccessKey ID
	AccessKeySecret    string `toml:"accessKeySecret"`    // 阿里云 AccessKey Secret
	SignName           string `toml:"signName"`           // 短信签名名称
	TemplateCode       string `toml:"templateCode"`       // 验证码模板 Code
	NotifyTemplateCode string `toml:"notifyTemplateCode"` // 通知类短信模板 Code
	Mode               string `toml:"mode"`               // aliyun / mock
}

// EmailConfig 邮件服务配置
type EmailConfig struct {
	Mode          string `toml:"mode"`          // console / sendgrid
	SendgridKey   string `toml:"sendgridKey"`   // SendGrid API Key
	FromName      string `toml:"fromName"`      // 发件人名称
	FromAddress   string `toml:"fromAddress"`   // 发件人地址
	SubjectPrefix string `toml:"subjectPrefix"` // 邮件主题前缀
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 营销事件总线配置
type KafkaConfig struct {
	MessageMode string        `toml:"messageMode"` // 消息模式："channel" 或 "kafka"
	HostPort    string        `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	EventTopic  string        `toml:"eventTopic"`  // 营销事件主题
	GroupID     string        `toml:"groupId"`     // 消费者组
	Partition   int           `toml:"partition"`   // 分区数
	Timeout     time.Duration `toml:"timeout"`     // 超时时间（秒）
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret             string `toml:"secret"`             // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry  int    `toml:"accessTokenExpiry"`  // Access Token 有效期（分钟）
	RefreshTokenExpiry int    `toml:"refreshTokenExpiry"` // Refresh Token 有效期（小时）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 雪花算法节点 ID，范围 0-1023，分布式部署时每台机器需唯一
}

// NotifyConfig 通知投递配置
type NotifyConfig struct {
	MaxAttempts   int `toml:"maxAttempts"`   // 单条通知最大投递次数
	RetryInterval int `toml:"retryInterval"` // 失败重试扫描间隔（秒）
	RetryBatch    int `toml:"retryBatch"`    // 每次重试扫描的条数
}

// PaymentConfig 支付网关配置
type PaymentConfig struct {
	CallbackSecret string `toml:"callbackSecret"` // 回调签名密钥（HMAC-SHA256），为空时拒绝所有回调
}

// MarketingConfig 营销活动相关配置
type MarketingConfig struct {
	SweepInterval       int `toml:"sweepInterval"`       // 拼团/助力过期扫描间隔（秒）
	CollectIPDailyLimit int `toml:"collectIpDailyLimit"` // 同一 IP 每日最多助力次数
	AnalyticsCacheTTL   int `toml:"analyticsCacheTTL"`   // 看板缓存有效期（秒）
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`      // 主配置
	MysqlConfig     `toml:"mysqlConfig"`     // MySQL 配置
	RedisConfig     `toml:"redisConfig"`     // Redis 配置
	AuthCodeConfig  `toml:"authCodeConfig"`  // 短信配置
	EmailConfig     `toml:"emailConfig"`     // 邮件配置
	LogConfig       `toml:"logConfig"`       // 日志配置
	KafkaConfig     `toml:"kafkaConfig"`     // Kafka 配置
	JWTConfig       `toml:"jwtConfig"`       // JWT 配置
	SnowflakeConfig `toml:"snowflakeConfig"` // 雪花算法配置
	NotifyConfig    `toml:"notifyConfig"`    // 通知配置
	MarketingConfig `toml:"marketingConfig"` // 营销配置
	PaymentConfig   `toml:"paymentConfig"`   // 支付配置
}

var (
	config     *Config
	configOnce sync.Once
)

// 候选配置文件路径（优先加载本地配置）
var searchPaths = []string{
	"configs/config_local.toml",
	"configs/config.toml",
	"../../configs/config_local.toml", // 从子目录运行时的路径
	"../../configs/config.toml",
}

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig(c *Config) error {
	for _, path := range searchPaths {
		if _, err := toml.DecodeFile(path, c); err == nil {
			return nil
		}
	}
	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// LoadFile 从指定路径加载配置（CLI 通过 -config 参数使用）
func LoadFile(path string) (*Config, error) {
	c := new(Config)
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	applyEnv(c)
	c.ApplyDefaults()
	return c, nil
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载 .env 与配置文件，找不到文件时使用默认值
func GetConfig() *Config {
	configOnce.Do(func() {
		_ = godotenv.Load() // .env 不存在时忽略
		config = new(Config)
		_ = LoadConfig(config)
		applyEnv(config)
		config.ApplyDefaults()
	})
	return config
}

// SetConfig 替换全局配置（测试与 CLI 使用）
func SetConfig(c *Config) {
	configOnce.Do(func() {})
	config = c
}

// applyEnv 敏感配置优先读取环境变量
func applyEnv(c *Config) {
	if v := os.Getenv("KG_JWT_SECRET"); v != "" {
		c.JWTConfig.Secret = v
	}
	if v := os.Getenv("KG_MYSQL_PASSWORD"); v != "" {
		c.MysqlConfig.Password = v
	}
	if v := os.Getenv("KG_SENDGRID_KEY"); v != "" {
		c.EmailConfig.SendgridKey = v
	}
	if v := os.Getenv("KG_PAYMENT_SECRET"); v != "" {
		c.PaymentConfig.CallbackSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("KG_SMS_MODE")); v != "" {
		c.AuthCodeConfig.Mode = strings.ToLower(v)
	}
}

// ApplyDefaults 为零值字段设置默认值
func (c *Config) ApplyDefaults() {
	if c.AppName == "" {
		c.AppName = "kindergarten"
	}
	if c.MainConfig.Host == "" {
		c.MainConfig.Host = "0.0.0.0"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8000
	}
	if c.MainConfig.Mode == "" {
		c.MainConfig.Mode = "dev"
	}
	if c.MysqlConfig.MaxOpenConns == 0 {
		c.MysqlConfig.MaxOpenConns = 50
	}
	if c.MysqlConfig.MaxIdleConns == 0 {
		c.MysqlConfig.MaxIdleConns = 10
	}
	if c.RedisConfig.PoolSize == 0 {
		c.RedisConfig.PoolSize = 50
	}
	if c.WorkerNum == 0 {
		c.WorkerNum = 15
	}
	if c.TaskChanSize == 0 {
		c.TaskChanSize = 3000
	}
	if c.MessageMode == "" {
		c.MessageMode = "channel"
	}
	if c.EventTopic == "" {
		c.EventTopic = "marketing_events"
	}
	if c.GroupID == "" {
		c.GroupID = "kindergarten"
	}
	if c.KafkaConfig.Timeout == 0 {
		c.KafkaConfig.Timeout = 1
	}
	if c.AccessTokenExpiry == 0 {
		c.AccessTokenExpiry = 120
	}
	if c.RefreshTokenExpiry == 0 {
		c.RefreshTokenExpiry = 168
	}
	if c.EmailConfig.Mode == "" {
		c.EmailConfig.Mode = "console"
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "[" + c.AppName + "] "
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 60
	}
	if c.RetryBatch == 0 {
		c.RetryBatch = 100
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 60
	}
	if c.CollectIPDailyLimit == 0 {
		c.CollectIPDailyLimit = 20
	}
	if c.AnalyticsCacheTTL == 0 {
		c.AnalyticsCacheTTL = 300
	}
}
