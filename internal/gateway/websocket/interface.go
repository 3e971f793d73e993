// Package websocket 站内通知推送网关
// 每个登录用户可以有多条 WebSocket 连接（多端），通知按用户 ID 推送到其全部连接
package websocket

// Pusher 通知服务依赖的推送接口
type Pusher interface {
	// Push 推送给用户的全部在线连接，返回是否至少送达一条连接
	Push(userID uint, payload []byte) bool
	// Online 用户是否在线
	Online(userID uint) bool
}

var _ Pusher = (*Hub)(nil)
