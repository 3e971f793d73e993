package request

// RegisterRequest 家长自助注册请求
// 使用位置:
//   - internal/handler/auth_handler.go: Register
//   - internal/service/auth/service.go: Register
type RegisterRequest struct {
	Username       string `json:"username" binding:"required,min=3,max=32"`
	Password       string `json:"password" binding:"required,min=6,max=64"`
	Nickname       string `json:"nickname" binding:"max=32"`
	Telephone      string `json:"telephone" binding:"required,mobile"`
	Email          string `json:"email" binding:"omitempty,email"`
	KindergartenID uint   `json:"kindergarten_id"`
	SmsCode        string `json:"sms_code" binding:"omitempty,len=6"`
}
