package testutil

import (
	"context"
	"errors"
	"path"
	"strconv"
	"sync"
	"time"

	"kindergarten_server/internal/infrastructure/email"
	"kindergarten_server/internal/infrastructure/mq"
	"kindergarten_server/pkg/errorx"
)

// ==================== 缓存 ====================

type cacheItem struct {
	value    string
	expireAt time.Time
}

// MemoryCache 内存版 AsyncCacheService，SubmitTask 同步执行
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]cacheItem
	// Err 非 nil 时所有操作返回该错误
	Err error
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]cacheItem)}
}

func (m *MemoryCache) live(key string) (cacheItem, bool) {
	it, ok := m.items[key]
	if !ok {
		return it, false
	}
	if !it.expireAt.IsZero() && time.Now().After(it.expireAt) {
		delete(m.items, key)
		return it, false
	}
	return it, true
}

func expireAt(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func (m *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.items[key] = cacheItem{value: value, expireAt: expireAt(ttl)}
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	it, ok := m.live(key)
	if !ok {
		return "", nil
	}
	return it.value, nil
}

func (m *MemoryCache) GetOrError(ctx context.Context, key string) (string, error) {
	v, err := m.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", errorx.Newf(errorx.CodeNotFound, "key %s not found", key)
	}
	return v, nil
}

func (m *MemoryCache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if _, ok := m.live(key); ok {
		return false, nil
	}
	m.items[key] = cacheItem{value: value, expireAt: expireAt(ttl)}
	return true, nil
}

func (m *MemoryCache) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	it, ok := m.live(key)
	var n int64
	if ok {
		n, _ = strconv.ParseInt(it.value, 10, 64)
	} else {
		it.expireAt = expireAt(ttl)
	}
	n++
	it.value = strconv.FormatInt(n, 10)
	m.items[key] = it
	return n, nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.items, key)
	return nil
}

func (m *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for k := range m.items {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *MemoryCache) SubmitTask(action func()) {
	action()
}

// Len 当前有效的 key 数
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.items {
		if _, ok := m.live(k); ok {
			n++
		}
	}
	return n
}

// ==================== 短信 ====================

// FakeSms 记录验证码与通知短信
type FakeSms struct {
	mu            sync.Mutex
	Codes         map[string]string
	Notifications []string // telephone|content
	Fail          bool
}

// NewFakeSms 创建短信替身
func NewFakeSms() *FakeSms {
	return &FakeSms{Codes: make(map[string]string)}
}

func (f *FakeSms) SendVerificationCode(_ context.Context, telephone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Codes[telephone]; ok {
		return errorx.New(errorx.CodeTooManyRequests, "目前还不能发送验证码")
	}
	f.Codes[telephone] = "123456"
	return nil
}

func (f *FakeSms) VerifyCode(_ context.Context, telephone, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.Codes[telephone]; !ok || c != code {
		return errorx.BadRequest("验证码不正确或已过期，请重试")
	}
	delete(f.Codes, telephone)
	return nil
}

func (f *FakeSms) SendNotification(_ context.Context, telephone, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return errors.New("sms gateway unavailable")
	}
	f.Notifications = append(f.Notifications, telephone+"|"+content)
	return nil
}

// Sent 已发送的通知短信数
func (f *FakeSms) Sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Notifications)
}

// SetFail 切换失败模式
func (f *FakeSms) SetFail(fail bool) {
	f.mu.Lock()
	f.Fail = fail
	f.mu.Unlock()
}

// ==================== 邮件 ====================

// FakeEmail 记录邮件
type FakeEmail struct {
	mu   sync.Mutex
	Msgs []email.Message
	Fail bool
}

func (f *FakeEmail) Send(_ context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return errors.New("email provider unavailable")
	}
	f.Msgs = append(f.Msgs, msg)
	return nil
}

// Sent 已发送的邮件数
func (f *FakeEmail) Sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Msgs)
}

// SetFail 切换失败模式
func (f *FakeEmail) SetFail(fail bool) {
	f.mu.Lock()
	f.Fail = fail
	f.mu.Unlock()
}

// ==================== 推送 ====================

// FakePusher 内存推送网关
type FakePusher struct {
	mu       sync.Mutex
	online   map[uint]bool
	Payloads map[uint][][]byte
}

// NewFakePusher 创建推送替身，userIDs 为在线用户
func NewFakePusher(userIDs ...uint) *FakePusher {
	p := &FakePusher{online: make(map[uint]bool), Payloads: make(map[uint][][]byte)}
	for _, id := range userIDs {
		p.online[id] = true
	}
	return p
}

func (p *FakePusher) Push(userID uint, payload []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.online[userID] {
		return false
	}
	p.Payloads[userID] = append(p.Payloads[userID], payload)
	return true
}

func (p *FakePusher) Online(userID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

// SetOnline 切换用户在线状态
func (p *FakePusher) SetOnline(userID uint, online bool) {
	p.mu.Lock()
	p.online[userID] = online
	p.mu.Unlock()
}

// Count 推送给某用户的消息数
func (p *FakePusher) Count(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Payloads[userID])
}

// ==================== 事件总线 ====================

// SyncBus 同步事件总线：Publish 记录事件并立即调用订阅者
// 只能在事务提交后发布
type SyncBus struct {
	mu       sync.Mutex
	Events   []mq.Event
	handlers map[string][]mq.Handler
}

var _ mq.EventBus = (*SyncBus)(nil)

// NewSyncBus 创建同步总线
func NewSyncBus() *SyncBus {
	return &SyncBus{handlers: make(map[string][]mq.Handler)}
}

func (b *SyncBus) Publish(ctx context.Context, e mq.Event) error {
	b.mu.Lock()
	b.Events = append(b.Events, e)
	hs := append([]mq.Handler(nil), b.handlers[e.Type]...)
	b.mu.Unlock()
	for _, h := range hs {
		_ = h(ctx, e)
	}
	return nil
}

func (b *SyncBus) Subscribe(eventType string, h mq.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

func (b *SyncBus) Start(ctx context.Context) { <-ctx.Done() }

func (b *SyncBus) Close() error { return nil }

// Types 按发布顺序返回事件类型
func (b *SyncBus) Types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.Events))
	for _, e := range b.Events {
		out = append(out, e.Type)
	}
	return out
}

// Count 某类事件的数量
func (b *SyncBus) Count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.Events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
