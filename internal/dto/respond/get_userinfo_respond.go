package respond

// UserInfoRespond 当前登录用户信息
type UserInfoRespond struct {
	ID             uint   `json:"id"`
	Uuid           string `json:"uuid"`
	Username       string `json:"username"`
	Nickname       string `json:"nickname"`
	Telephone      string `json:"telephone"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	KindergartenID uint   `json:"kindergarten_id"`
	Status         int8   `json:"status"`
	CreatedAt      string `json:"created_at"`
}
