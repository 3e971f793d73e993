// Package snowflake 生成订单号等全局唯一编号
package snowflake

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

const maxMachineID = 1023

var (
	mu   sync.Mutex
	node *snowflake.Node
)

// Init 按机器号创建节点，范围 0-1023
// 多实例部署时机器号必须互不相同，否则订单号可能重复
func Init(machineID int64) error {
	if machineID < 0 || machineID > maxMachineID {
		return fmt.Errorf("snowflake machine id %d out of range [0, %d]", machineID, maxMachineID)
	}
	n, err := snowflake.NewNode(machineID)
	if err != nil {
		return err
	}
	mu.Lock()
	node = n
	mu.Unlock()
	zap.L().Info("snowflake node initialized", zap.Int64("machineID", machineID))
	return nil
}

func current() *snowflake.Node {
	mu.Lock()
	defer mu.Unlock()
	if node == nil {
		// 未初始化（测试、命令行工具）时退回 1 号节点
		node, _ = snowflake.NewNode(1)
	}
	return node
}

// GenerateIDString 字符串形式的雪花 ID，避免前端精度丢失
func GenerateIDString() string {
	return current().Generate().String()
}

// GenerateOrderNo 订单号 = 前缀 + 雪花 ID
func GenerateOrderNo(prefix string) string {
	return prefix + GenerateIDString()
}

// ParseOrderNo 拆出订单号中的雪花 ID，用于对账时还原下单时间与节点
func ParseOrderNo(prefix, orderNo string) (snowflake.ID, error) {
	raw, ok := strings.CutPrefix(orderNo, prefix)
	if !ok {
		return 0, fmt.Errorf("order no %q missing prefix %q", orderNo, prefix)
	}
	return snowflake.ParseString(raw)
}
