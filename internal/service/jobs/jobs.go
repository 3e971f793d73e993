// Package jobs 后台定时任务：拼团/助力过期扫描、失败通知重试
package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job 周期任务，Run 返回本轮处理的条数
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Runner 按各自间隔执行任务，ctx 取消后全部退出
type Runner struct {
	jobs []Job
}

// NewRunner 创建任务调度器，间隔非正的任务被忽略
func NewRunner(jobs ...Job) *Runner {
	r := &Runner{}
	for _, j := range jobs {
		if j.Interval <= 0 || j.Run == nil {
			zap.L().Warn("忽略无效的定时任务", zap.String("job", j.Name))
			continue
		}
		r.jobs = append(r.jobs, j)
	}
	return r
}

// Start 阻塞直到 ctx 取消且所有任务退出
func (r *Runner) Start(ctx context.Context) {
	var g errgroup.Group
	for _, j := range r.jobs {
		j := j
		g.Go(func() error {
			loop(ctx, j)
			return nil
		})
	}
	_ = g.Wait()
	zap.L().Info("定时任务已停止")
}

func loop(ctx context.Context, j Job) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, j)
		}
	}
}

// runOnce 单轮执行，panic 不影响后续轮次
func runOnce(ctx context.Context, j Job) {
	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("定时任务 panic", zap.String("job", j.Name), zap.Any("panic", p))
		}
	}()
	n, err := j.Run(ctx)
	if err != nil {
		zap.L().Error("定时任务执行失败", zap.String("job", j.Name), zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("定时任务完成", zap.String("job", j.Name), zap.Int("processed", n))
	}
}

// Seconds 配置中的秒数转为间隔
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
