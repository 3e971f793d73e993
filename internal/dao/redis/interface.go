// Package redis 定义缓存服务接口
// Service 层依赖此接口而非具体 Redis 实现，测试中可替换为内存实现
package redis

import (
	"context"
	"time"
)

// CacheService 缓存服务接口
type CacheService interface {
	// ==================== String 操作 ====================

	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)
	// GetOrError 获取键对应的值（键不存在返回 CodeNotFound 错误）
	GetOrError(ctx context.Context, key string) (string, error)
	// SetNX 键不存在时写入，返回是否写入成功（用于去重与简单锁）
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// ==================== 计数器 ====================

	// IncrWithTTL 自增计数器，首次创建时设置过期时间，返回自增后的值
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// ==================== Key 操作 ====================

	// Delete 删除键（如果存在）
	Delete(ctx context.Context, key string) error
	// DeleteByPattern 删除匹配模式的所有键
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AsyncCacheService 异步缓存服务接口
// 提供异步任务提交能力，用于非阻塞缓存更新
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步缓存任务
	SubmitTask(action func())
}
