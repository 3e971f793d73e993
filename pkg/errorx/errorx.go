package errorx

import (
	"errors"
	"fmt"
	"net/http"
)

// CodeError 带业务错误码的自定义错误
// 实现了 error 接口，支持 %w 包装底层错误，且能被 errors.Is/errors.As 识别
type CodeError struct {
	Code  int    // 业务错误码
	Msg   string // 错误消息
	cause error  // 被包装的底层错误
}

// Error 实现 Go 标准 error 接口
// 当存在底层错误时，返回格式为 "消息: 底层错误"；否则仅返回消息
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

// Unwrap 实现 errors.Unwrap 接口，支持 errors.Is/errors.As 向下追溯
func (e *CodeError) Unwrap() error {
	return e.cause
}

// Is 与预定义错误实例同码即视为同一类错误
// 例如 errors.Is(err, errorx.ErrNotFound) 对任意 CodeNotFound 错误都成立
func (e *CodeError) Is(target error) bool {
	t, ok := target.(*CodeError)
	if !ok || !isSentinel(t) {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus 返回该错误对应的 HTTP 状态码
func (e *CodeError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}

// New 创建一个新的 CodeError
func New(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

// Newf 创建一个带格式化消息的 CodeError
func Newf(code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap 包装底层错误，添加业务错误码和消息
// 用法: errorx.Wrap(err, CodeNotFound, "学生不存在")
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   msg,
		cause: err,
	}
}

// Wrapf 包装底层错误，支持格式化消息
// 用法: errorx.Wrapf(err, CodeNotFound, "学生 %d 不存在", id)
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// BadRequest 400 类业务错误
func BadRequest(format string, args ...any) *CodeError {
	return Newf(CodeInvalidParam, format, args...)
}

// Unauthorized 401 类业务错误
func Unauthorized(format string, args ...any) *CodeError {
	return Newf(CodeUnauthorized, format, args...)
}

// Forbidden 403 类业务错误
func Forbidden(format string, args ...any) *CodeError {
	return Newf(CodeForbidden, format, args...)
}

// NotFound 404 类业务错误
func NotFound(format string, args ...any) *CodeError {
	return Newf(CodeNotFound, format, args...)
}

// Conflict 409 类业务错误（状态冲突、重复提交、容量已满等）
func Conflict(format string, args ...any) *CodeError {
	return Newf(CodeConflict, format, args...)
}

// ServerError 500 类错误，err 为底层原因，可为 nil
func ServerError(err error, format string, args ...any) *CodeError {
	return Wrapf(err, CodeServerBusy, format, args...)
}

// GetCode 从错误中提取业务错误码，如果不是 CodeError 则返回默认码
func GetCode(err error) int {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return CodeServerBusy // 默认返回服务繁忙
}

// HTTPStatus 业务码 -> HTTP 状态码
func HTTPStatus(code int) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeInvalidPassword:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeUserNotExist:
		return http.StatusNotFound
	case CodeConflict, CodeUserExist:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// 业务状态码常量定义
const (
	CodeSuccess         = 1000 // 成功
	CodeInvalidParam    = 1001 // 请求参数错误
	CodeUserExist       = 1002 // 用户已存在
	CodeUserNotExist    = 1003 // 用户不存在
	CodeInvalidPassword = 1004 // 密码错误
	CodeServerBusy      = 1005 // 服务繁忙
	CodeUnauthorized    = 1006 // 未授权/认证失败
	CodeForbidden       = 1007 // 无权限
	CodeNotFound        = 1008 // 资源不存在
	CodeConflict        = 1009 // 状态冲突
	CodeDBError         = 1010 // 数据库错误
	CodeCacheError      = 1011 // 缓存错误
	CodeTooManyRequests = 1012 // 请求过于频繁
)

// 预定义常用错误实例
// 这些实例既可直接返回，也可用于 errors.Is 比较
var (
	ErrInvalidParam = New(CodeInvalidParam, "请求参数错误")
	ErrServerBusy   = New(CodeServerBusy, "服务繁忙")
	ErrUnauthorized = New(CodeUnauthorized, "请先登录")
	ErrForbidden    = New(CodeForbidden, "无权限执行该操作")
	ErrNotFound     = New(CodeNotFound, "资源不存在")
	ErrConflict     = New(CodeConflict, "状态冲突")
)

func isSentinel(t *CodeError) bool {
	switch t {
	case ErrInvalidParam, ErrServerBusy, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict:
		return true
	}
	return false
}

// IsNotFound 检查错误是否为"未找到"类型（包括 gorm.ErrRecordNotFound）
func IsNotFound(err error) bool {
	var codeErr *CodeError
	if errors.As(err, &codeErr) && codeErr.Code == CodeNotFound {
		return true
	}
	return err != nil && err.Error() == "record not found"
}
