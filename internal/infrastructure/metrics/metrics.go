// Package metrics Prometheus 指标
// 所有指标注册到默认 Registry，由 /metrics 暴露
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kindergarten"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP 请求数",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP 请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	GroupBuyJoins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "marketing",
		Name:      "group_buy_joins_total",
		Help:      "拼团参与次数，result=joined|success",
	}, []string{"result"})

	CollectHelps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "marketing",
		Name:      "collect_helps_total",
		Help:      "助力次数，result=ok|duplicate|rejected",
	}, []string{"result"})

	RewardsAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "marketing",
		Name:      "rewards_awarded_total",
		Help:      "阶梯奖励发放数",
	}, []string{"type"})

	NotificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_delivered_total",
		Help:      "通知投递结果",
	}, []string{"channel", "status"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		GroupBuyJoins,
		CollectHelps,
		RewardsAwarded,
		NotificationsDelivered,
	)
}

// Handler /metrics 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// GinMetrics 记录请求数与耗时，route 使用路由模板避免高基数
func GinMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
