package request

// SmsLoginRequest 短信验证码登录请求
// 使用位置:
//   - internal/handler/auth_handler.go: SmsLogin
//   - internal/service/auth/service.go: SmsLogin
type SmsLoginRequest struct {
	Telephone string `json:"telephone" binding:"required,mobile"`
	SmsCode   string `json:"sms_code" binding:"required,len=6"`
}
