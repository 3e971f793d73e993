// Package notification 通知投递：站内信、邮件、短信与 WebSocket 推送
// 每个接收人每个渠道落一条 Notification，投递在 worker 池中异步执行，失败由重试任务补偿
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"

	"go.uber.org/zap"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/gateway/websocket"
	"kindergarten_server/internal/infrastructure/email"
	"kindergarten_server/internal/infrastructure/metrics"
	"kindergarten_server/internal/infrastructure/sms"
	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/errorx"
)

// 通知类型
const (
	TypeSystem    = "system"
	TypeBroadcast = "broadcast"
	TypeMarketing = "marketing"
	TypeOrder     = "order"
	TypeActivity  = "activity"
	TypeEnroll    = "enrollment"
)

var (
	errUserOffline  = errors.New("user offline")
	errNoEmail      = errors.New("user has no email")
	errNoTelephone  = errors.New("user has no telephone")
	errUnknownUser  = errors.New("user not found")
	defaultChannels = []string{model.ChannelInApp}
)

// Message 一次通知，Channels 为空时只发站内信
type Message struct {
	UserIDs  []uint
	Title    string
	Content  string
	Type     string
	BizType  string
	BizID    uint
	Channels []string
}

// Notifier 其他业务模块依赖的通知接口
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// TaskSubmitter 异步任务提交，生产环境为 Redis 缓存的 worker 池
type TaskSubmitter interface {
	SubmitTask(action func())
}

type notificationService struct {
	repos  *repository.Repositories
	email  email.EmailService
	sms    sms.SmsService
	pusher websocket.Pusher
	tasks  TaskSubmitter
	conf   config.NotifyConfig
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	repos *repository.Repositories,
	emailSvc email.EmailService,
	smsSvc sms.SmsService,
	pusher websocket.Pusher,
	tasks TaskSubmitter,
	conf config.NotifyConfig,
) *notificationService {
	if conf.MaxAttempts <= 0 {
		conf.MaxAttempts = 3
	}
	if conf.RetryBatch <= 0 {
		conf.RetryBatch = 100
	}
	return &notificationService{
		repos:  repos,
		email:  emailSvc,
		sms:    smsSvc,
		pusher: pusher,
		tasks:  tasks,
		conf:   conf,
	}
}

// Notify 落库后异步投递，调用方不等待投递结果
// 必须在业务事务提交之后调用
func (s *notificationService) Notify(ctx context.Context, msg Message) error {
	userIDs := uniqueIDs(msg.UserIDs)
	if len(userIDs) == 0 {
		return nil
	}
	channels := msg.Channels
	if len(channels) == 0 {
		channels = defaultChannels
	}
	for _, ch := range channels {
		if !model.ValidChannel(ch) {
			return errorx.BadRequest("不支持的通知渠道 %s", ch)
		}
	}
	if msg.Type == "" {
		msg.Type = TypeSystem
	}

	rows := make([]*model.Notification, 0, len(userIDs)*len(channels))
	for _, uid := range userIDs {
		for _, ch := range channels {
			rows = append(rows, &model.Notification{
				UserID:  uid,
				Title:   msg.Title,
				Content: msg.Content,
				Type:    msg.Type,
				Channel: ch,
				Status:  model.NotifyPending,
				BizType: msg.BizType,
				BizID:   msg.BizID,
			})
		}
	}
	if err := s.repos.Notification.CreateBatch(rows); err != nil {
		zap.L().Error("保存通知失败", zap.String("title", msg.Title), zap.Error(err))
		return errorx.ServerError(err, "保存通知失败")
	}

	users, err := s.contacts(rows)
	if err != nil {
		// 联系方式查不到只影响邮件和短信，失败记录交给重试任务
		zap.L().Warn("查询通知接收人失败", zap.Error(err))
	}
	// 投递脱离请求生命周期
	bg := context.WithoutCancel(ctx)
	for _, n := range rows {
		n := n
		u := users[n.UserID]
		s.tasks.SubmitTask(func() { s.deliver(bg, n, u) })
	}
	return nil
}

// RetryFailed 重新投递失败且未超过次数上限的通知，返回处理条数
func (s *notificationService) RetryFailed(ctx context.Context) (int, error) {
	list, err := s.repos.Notification.ListRetryable(s.conf.MaxAttempts, s.conf.RetryBatch)
	if err != nil {
		return 0, errorx.ServerError(err, "查询待重试通知失败")
	}
	if len(list) == 0 {
		return 0, nil
	}
	rows := make([]*model.Notification, len(list))
	for i := range list {
		rows[i] = &list[i]
	}
	users, err := s.contacts(rows)
	if err != nil {
		zap.L().Warn("查询通知接收人失败", zap.Error(err))
	}
	for _, n := range rows {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		s.deliver(ctx, n, users[n.UserID])
	}
	return len(rows), nil
}

// contacts 邮件、短信渠道需要接收人的联系方式
func (s *notificationService) contacts(rows []*model.Notification) (map[uint]*model.User, error) {
	var ids []uint
	for _, n := range rows {
		if n.Channel == model.ChannelEmail || n.Channel == model.ChannelSMS {
			ids = append(ids, n.UserID)
		}
	}
	users := make(map[uint]*model.User)
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return users, nil
	}
	list, err := s.repos.User.FindByIDs(ids)
	if err != nil {
		return users, err
	}
	for i := range list {
		users[list[i].ID] = &list[i]
	}
	return users, nil
}

func (s *notificationService) deliver(ctx context.Context, n *model.Notification, u *model.User) {
	status := model.NotifySent
	if err := s.send(ctx, n, u); err != nil {
		status = model.NotifyFailed
		zap.L().Warn("通知投递失败",
			zap.Uint("id", n.ID),
			zap.Uint("user", n.UserID),
			zap.String("channel", n.Channel),
			zap.Error(err))
		if dbErr := s.repos.Notification.MarkFailed(n.ID, err.Error()); dbErr != nil {
			zap.L().Error("更新通知状态失败", zap.Uint("id", n.ID), zap.Error(dbErr))
		}
	} else if dbErr := s.repos.Notification.MarkSent(n.ID); dbErr != nil {
		zap.L().Error("更新通知状态失败", zap.Uint("id", n.ID), zap.Error(dbErr))
	}
	metrics.NotificationsDelivered.WithLabelValues(n.Channel, status).Inc()
}

func (s *notificationService) send(ctx context.Context, n *model.Notification, u *model.User) error {
	switch n.Channel {
	case model.ChannelInApp:
		// 落库即送达，在线时顺带推送
		s.pusher.Push(n.UserID, pushPayload(n))
		return nil
	case model.ChannelPush:
		if !s.pusher.Push(n.UserID, pushPayload(n)) {
			return errUserOffline
		}
		return nil
	case model.ChannelEmail:
		if u == nil {
			return errUnknownUser
		}
		if u.Email == "" {
			return errNoEmail
		}
		return s.email.Send(ctx, email.Message{
			To:          []mail.Address{{Name: u.Nickname, Address: u.Email}},
			Subject:     n.Title,
			TextContent: n.Content,
		})
	case model.ChannelSMS:
		if u == nil {
			return errUnknownUser
		}
		if u.Telephone == "" {
			return errNoTelephone
		}
		return s.sms.SendNotification(ctx, u.Telephone, n.Title+"："+n.Content)
	}
	return fmt.Errorf("unknown channel %q", n.Channel)
}

type pushMessage struct {
	Type string              `json:"type"`
	Data *model.Notification `json:"data"`
}

func pushPayload(n *model.Notification) []byte {
	b, err := json.Marshal(pushMessage{Type: "notification", Data: n})
	if err != nil {
		zap.L().Error("序列化推送消息失败", zap.Error(err))
		return nil
	}
	return b
}

// ==================== 站内信接口 ====================

// List 当前用户的站内信
func (s *notificationService) List(userID uint, req request.NotificationListRequest) (*respond.PageResult[model.Notification], error) {
	p := req.Pager()
	list, total, err := s.repos.Notification.ListByUser(userID, req.UnreadOnly, p)
	if err != nil {
		zap.L().Error("查询通知失败", zap.Uint("user", userID), zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// UnreadCount 未读站内信数
func (s *notificationService) UnreadCount(userID uint) (int64, error) {
	n, err := s.repos.Notification.CountUnread(userID)
	if err != nil {
		zap.L().Error("统计未读失败", zap.Uint("user", userID), zap.Error(err))
		return 0, errorx.ErrServerBusy
	}
	return n, nil
}

// MarkRead 标记已读，重复标记不报错
func (s *notificationService) MarkRead(userID, id uint) error {
	n, err := s.repos.Notification.MarkRead(id, userID)
	if err != nil {
		return errorx.ServerError(err, "标记已读失败")
	}
	if n == 1 {
		return nil
	}
	row, err := s.repos.Notification.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return errorx.NotFound("通知不存在")
		}
		return errorx.ServerError(err, "查询通知失败")
	}
	if row.UserID != userID {
		return errorx.NotFound("通知不存在")
	}
	return nil
}

// MarkAllRead 全部已读，返回本次标记条数
func (s *notificationService) MarkAllRead(userID uint) (int64, error) {
	n, err := s.repos.Notification.MarkAllRead(userID)
	if err != nil {
		return 0, errorx.ServerError(err, "标记已读失败")
	}
	return n, nil
}

// Broadcast 向园所或班级全部家长群发，返回接收人数
func (s *notificationService) Broadcast(ctx context.Context, operatorID uint, req request.BroadcastRequest) (int, error) {
	var (
		userIDs []uint
		err     error
		bizType = "kindergarten"
		bizID   = req.KindergartenID
	)
	if req.ClassID != 0 {
		class, err := s.repos.Class.FindByID(req.ClassID)
		if err != nil {
			if errorx.IsNotFound(err) {
				return 0, errorx.NotFound("班级不存在")
			}
			return 0, errorx.ServerError(err, "查询班级失败")
		}
		if class.KindergartenID != req.KindergartenID {
			return 0, errorx.BadRequest("班级不属于该幼儿园")
		}
		userIDs, err = s.repos.Guardian.UserIDsByClass(req.ClassID)
		if err != nil {
			return 0, errorx.ServerError(err, "查询班级家长失败")
		}
		bizType, bizID = "class", req.ClassID
	} else {
		if _, err = s.repos.Kindergarten.FindByID(req.KindergartenID); err != nil {
			if errorx.IsNotFound(err) {
				return 0, errorx.NotFound("幼儿园不存在")
			}
			return 0, errorx.ServerError(err, "查询幼儿园失败")
		}
		userIDs, err = s.repos.User.FindIDsByKindergartenAndRole(req.KindergartenID, model.RoleParent)
		if err != nil {
			return 0, errorx.ServerError(err, "查询家长账号失败")
		}
	}
	userIDs = uniqueIDs(userIDs)
	if len(userIDs) == 0 {
		return 0, nil
	}

	err = s.Notify(ctx, Message{
		UserIDs:  userIDs,
		Title:    req.Title,
		Content:  req.Content,
		Type:     TypeBroadcast,
		BizType:  bizType,
		BizID:    bizID,
		Channels: req.Channels,
	})
	if err != nil {
		return 0, err
	}
	zap.L().Info("群发通知",
		zap.Uint("operator", operatorID),
		zap.String("biz", bizType),
		zap.Uint("bizId", bizID),
		zap.Int("recipients", len(userIDs)))
	return len(userIDs), nil
}

// uniqueIDs 去重并去掉 0，保持原顺序
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
