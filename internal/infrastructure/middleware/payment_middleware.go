package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"kindergarten_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentSignatureHeader 支付网关回调签名头
const PaymentSignatureHeader = "X-Payment-Signature"

const maxCallbackBody = 64 << 10

// SignPayload 请求体的 HMAC-SHA256，十六进制小写
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentSignature 校验支付回调签名，通过后把请求体放回供后续绑定
// 未配置密钥时拒绝全部回调
func PaymentSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			zap.L().Error("paymentConfig.callbackSecret 未配置，拒绝支付回调", zap.String("ip", c.ClientIP()))
			abort(c, errorx.CodeForbidden, "支付回调未启用")
			return
		}
		sig := strings.ToLower(strings.TrimSpace(c.GetHeader(PaymentSignatureHeader)))
		if sig == "" {
			abort(c, errorx.CodeUnauthorized, "缺少回调签名")
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody+1))
		if err != nil || len(body) > maxCallbackBody {
			abort(c, errorx.CodeInvalidParam, errorx.ErrInvalidParam.Msg)
			return
		}
		if !hmac.Equal([]byte(sig), []byte(SignPayload(secret, body))) {
			zap.L().Warn("支付回调签名不匹配", zap.String("ip", c.ClientIP()))
			abort(c, errorx.CodeUnauthorized, "回调签名校验失败")
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
