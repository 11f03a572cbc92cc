package auth

// gin.Context 里的鉴权信息键
const (
	CtxUserID = "userId"
	CtxRole   = "role"
	CtxClaims = "claims"
)
