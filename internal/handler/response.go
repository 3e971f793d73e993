package handler

import (
	"errors"
	"net/http"
	"strconv"

	"kindergarten_server/internal/dto/request"
	"kindergarten_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ResponseData 统一响应结构体
type ResponseData struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Message any  `json:"message"`
	Data    any  `json:"data,omitempty"`
}

func writeResponse(c *gin.Context, status, code int, msg any, data any) {
	c.JSON(status, ResponseData{
		Success: code == errorx.CodeSuccess,
		Code:    code,
		Message: msg,
		Data:    data,
	})
}

// HandleSuccess 返回成功响应
func HandleSuccess(c *gin.Context, data any) {
	writeResponse(c, http.StatusOK, errorx.CodeSuccess, "success", data)
}

// HandleCreated 创建成功
func HandleCreated(c *gin.Context, data any) {
	writeResponse(c, http.StatusCreated, errorx.CodeSuccess, "success", data)
}

// HandleError 通用错误处理方法
// 业务错误按错误码映射 HTTP 状态，其余错误记录日志并返回服务繁忙
func HandleError(c *gin.Context, err error) {
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		status := errorx.HTTPStatus(codeErr.Code)
		if status >= http.StatusInternalServerError {
			zap.L().Error("server error",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Int("code", codeErr.Code),
				zap.Error(err),
			)
		}
		writeResponse(c, status, codeErr.Code, codeErr.Msg, nil)
		return
	}

	zap.L().Error("system error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	writeResponse(c, http.StatusInternalServerError, errorx.ErrServerBusy.Code, errorx.ErrServerBusy.Msg, nil)
}

// HandleParamError 处理参数绑定错误（带 validator 翻译支持）
func HandleParamError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && Trans != nil {
		// 翻译后去除结构体名前缀
		translated := RemoveTopStruct(validationErrs.Translate(Trans))
		writeResponse(c, http.StatusBadRequest, errorx.CodeInvalidParam, translated, nil)
		return
	}

	zap.L().Debug("param bind error", zap.Error(err))
	writeResponse(c, http.StatusBadRequest, errorx.CodeInvalidParam, errorx.ErrInvalidParam.Msg, nil)
}

// pathID 读取路径中的数字 ID，非法时已写出 400
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		writeResponse(c, http.StatusBadRequest, errorx.CodeInvalidParam, "非法的 "+name, nil)
		return 0, false
	}
	return uint(id), true
}

// bindPage 绑定分页参数
func bindPage(c *gin.Context) (request.PageRequest, bool) {
	var req request.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return req, false
	}
	return req, true
}
