package dto

// ── 认证模块 DTO ──

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int           `json:"expires_in"` // 有效期（秒）
	ExpiresAt   string        `json:"expires_at"`
	Admin       AdminResponse `json:"admin"`
}

// AdminResponse 管理员信息（脱敏）
type AdminResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// VerifyResponse Token 校验响应
type VerifyResponse struct {
	Valid bool          `json:"valid"`
	Admin AdminResponse `json:"admin"`
}
