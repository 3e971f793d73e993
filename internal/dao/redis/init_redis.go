package redis

import (
	"context"
	"strconv"
	"time"

	"kindergarten_server/internal/config"

	"github.com/redis/go-redis/v9"
)

// Init 根据配置创建 Redis 客户端与缓存服务
// 启动时 Ping 一次，连接失败直接返回错误
func Init(conf *config.RedisConfig) (*RedisCache, error) {
	addr := conf.Host + ":" + strconv.Itoa(conf.Port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     conf.Password,
		DB:           conf.Db,
		PoolSize:     conf.PoolSize,
		MinIdleConns: conf.WorkerNum, // 与 Worker 数量匹配
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisCache(client, conf.WorkerNum, conf.TaskChanSize), nil
}
