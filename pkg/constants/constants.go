package constants

import "time"

const (
	CHANNEL_SIZE               = 100   // 通道大小
	REFRESH_TOKEN_EXPIRY_HOURS = 168   // Refresh Token 有效期（小时），168小时 = 7天
	DEFAULT_PAGE_SIZE          = 20    // 默认分页大小
	MAX_PAGE_SIZE              = 100   // 分页上限
	SMS_CODE_TTL               = time.Minute
	COLLECT_HELP_DEDUP_TTL     = 30 * 24 * time.Hour // 助力去重 key 的保留时间
)

// 上下文 key，JWT 中间件写入，Handler 读取
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// 缓存 key 前缀
const (
	CacheKeyUserToken       = "user_token:"
	CacheKeyAuthCode        = "auth_code_"
	CacheKeyCollectHelped   = "collect_helped:"   // collect_helped:<code>:<userId>
	CacheKeyCollectIPDaily  = "collect_ip_daily:" // collect_ip_daily:<yyyymmdd>:<ip>
	CacheKeyAnalyticsPrefix = "analytics:"
)
