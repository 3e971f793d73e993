package sms

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi20170525 "github.com/alibabacloud-go/dysmsapi-20170525/v4/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	"go.uber.org/zap"

	"kindergarten_server/internal/config"
	myredis "kindergarten_server/internal/dao/redis"
	"kindergarten_server/pkg/constants"
	"kindergarten_server/pkg/errorx"
	"kindergarten_server/pkg/util/random"
)

// codeStore 验证码的生成、占位与校验
// 先占位后发送：SETNX 成功才真正调用短信接口，发送失败回滚占位
type codeStore struct {
	cache myredis.CacheService
}

func codeKey(telephone string) string {
	return constants.CacheKeyAuthCode + telephone
}

// reserve 生成验证码并写入缓存；有效期内重复请求返回频率错误
func (s codeStore) reserve(ctx context.Context, telephone string) (string, error) {
	code := strconv.Itoa(random.GetRandomInt(6))
	ok, err := s.cache.SetNX(ctx, codeKey(telephone), code, constants.SMS_CODE_TTL)
	if err != nil {
		zap.L().Error("缓存写入验证码失败", zap.Error(err), zap.String("phone", telephone))
		return "", errorx.ErrServerBusy
	}
	if !ok {
		return "", errorx.New(errorx.CodeTooManyRequests, "目前还不能发送验证码，请稍后重试或输入已发送的验证码")
	}
	return code, nil
}

func (s codeStore) rollback(ctx context.Context, telephone string) {
	if err := s.cache.Delete(ctx, codeKey(telephone)); err != nil {
		zap.L().Error("回滚验证码占位失败", zap.Error(err), zap.String("phone", telephone))
	}
}

// VerifyCode 校验通过后立即删除，防止重复使用
func (s codeStore) VerifyCode(ctx context.Context, telephone, code string) error {
	stored, err := s.cache.Get(ctx, codeKey(telephone))
	if err != nil {
		zap.L().Error("读取验证码失败", zap.Error(err))
		return errorx.ErrServerBusy
	}
	if stored == "" || stored != strings.TrimSpace(code) {
		return errorx.BadRequest("验证码不正确或已过期，请重试")
	}
	if err := s.cache.Delete(ctx, codeKey(telephone)); err != nil {
		zap.L().Error("删除验证码失败", zap.Error(err))
	}
	return nil
}

// ==================== 本地 Mock ====================

// localSmsService 不调用第三方，只把验证码和通知内容写入日志
type localSmsService struct {
	codeStore
}

func (s *localSmsService) SendVerificationCode(ctx context.Context, telephone string) error {
	code, err := s.reserve(ctx, telephone)
	if err != nil {
		return err
	}
	zap.L().Info("【MockSMS】验证码", zap.String("phone", telephone), zap.String("code", code))
	return nil
}

func (s *localSmsService) SendNotification(ctx context.Context, telephone, content string) error {
	zap.L().Info("【MockSMS】通知", zap.String("phone", telephone), zap.String("content", content))
	return nil
}

// shouldUseMock mode 显式指定，或没有配置真实 AccessKey 时走 mock
func shouldUseMock(auth config.AuthCodeConfig) bool {
	switch strings.ToLower(strings.TrimSpace(auth.Mode)) {
	case "mock", "local", "test":
		return true
	case "aliyun":
		return false
	}
	ak := strings.ToLower(strings.TrimSpace(auth.AccessKeyID))
	ask := strings.ToLower(strings.TrimSpace(auth.AccessKeySecret))
	if ak == "" || ask == "" {
		return true
	}
	return strings.Contains(ak, "your accesskey") || strings.Contains(ask, "your accesskey")
}

// ==================== 阿里云 ====================

// aliyunSmsService 阿里云短信服务实现
type aliyunSmsService struct {
	codeStore
	client *dysmsapi20170525.Client
	conf   config.AuthCodeConfig
}

// Init 根据配置创建短信服务
func Init(authCfg config.AuthCodeConfig, cacheService myredis.CacheService) (SmsService, error) {
	store := codeStore{cache: cacheService}
	if shouldUseMock(authCfg) {
		zap.L().Warn("SMS Service 使用本地 Mock 模式（仅写入 Redis 与日志，不调用第三方短信）")
		return &localSmsService{codeStore: store}, nil
	}

	conf := &openapi.Config{
		AccessKeyId:     tea.String(authCfg.AccessKeyID),
		AccessKeySecret: tea.String(authCfg.AccessKeySecret),
	}
	conf.Endpoint = tea.String("dysmsapi.aliyuncs.com")
	client, err := dysmsapi20170525.NewClient(conf)
	if err != nil {
		zap.L().Error("Aliyun SMS Client Init Failed", zap.Error(err))
		return nil, err
	}
	return &aliyunSmsService{codeStore: store, client: client, conf: authCfg}, nil
}

// SendVerificationCode 占位、发送、失败回滚
func (s *aliyunSmsService) SendVerificationCode(ctx context.Context, telephone string) error {
	code, err := s.reserve(ctx, telephone)
	if err != nil {
		return err
	}

	templateCode := s.conf.TemplateCode
	if templateCode == "" {
		templateCode = "SMS_154950909"
	}
	if err := s.send(telephone, templateCode, map[string]string{"code": code}); err != nil {
		s.rollback(ctx, telephone)
		return errorx.ErrServerBusy
	}
	return nil
}

// SendNotification 使用通知模板，模板变量 ${content}
func (s *aliyunSmsService) SendNotification(ctx context.Context, telephone, content string) error {
	if s.conf.NotifyTemplateCode == "" {
		return errorx.ServerError(nil, "未配置通知短信模板")
	}
	return s.send(telephone, s.conf.NotifyTemplateCode, map[string]string{"content": content})
}

func (s *aliyunSmsService) send(telephone, templateCode string, params map[string]string) error {
	signName := s.conf.SignName
	if signName == "" {
		signName = "阿里云短信测试"
	}
	param, err := json.Marshal(params)
	if err != nil {
		return err
	}

	req := &dysmsapi20170525.SendSmsRequest{
		SignName:      tea.String(signName),
		TemplateCode:  tea.String(templateCode),
		PhoneNumbers:  tea.String(telephone),
		TemplateParam: tea.String(string(param)),
	}
	rsp, err := s.client.SendSmsWithOptions(req, &util.RuntimeOptions{})
	if err != nil {
		zap.L().Error("调用阿里云短信接口发生系统级错误", zap.Error(err))
		return err
	}
	zap.L().Info("短信发送接口响应", zap.String("response", *util.ToJSONString(rsp)))

	// err 为 nil 时仍需检查业务码
	if rsp.Body == nil || tea.StringValue(rsp.Body.Code) != "OK" {
		msg := "unknown"
		if rsp.Body != nil {
			msg = tea.StringValue(rsp.Body.Message)
		}
		return errorx.ServerError(nil, "短信发送失败: %s", msg)
	}
	return nil
}
