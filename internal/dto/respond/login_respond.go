package respond

// LoginRespond 登录/注册/刷新令牌响应
// 使用位置:
//   - internal/service/auth/service.go: Login, SmsLogin, Register, Refresh
type LoginRespond struct {
	UserInfoRespond
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
