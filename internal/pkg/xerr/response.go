package xerr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeError 结构体用于在服务层传递带有业务码的错误
// 它实现了 error 接口
type CodeError struct {
	Code int   // 业务错误码
	Err  error // 被包裹的底层错误
}

// Error 实现 error 接口
func (e *CodeError) Error() string {
	return e.Err.Error()
}

// Unwrap 返回被包裹的底层错误，支持 errors.Unwrap
func (e *CodeError) Unwrap() error {
	return e.Err
}

// NewCodeError 创建一个 CodeError 实例
func NewCodeError(code int, err error) *CodeError {
	return &CodeError{Code: code, Err: err}
}

// Response 是通用 JSON 响应结构
type Response struct {
	Code    int    `json:"code"`    // 业务状态码
	Message string `json:"message"` // 消息
	Data    any    `json:"data"`    // 响应数据
}

// JSONResponse 发送标准 JSON 响应
func JSONResponse(c *gin.Context, httpStatus int, code int, message string, data any) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success 成功响应
func Success(c *gin.Context, httpStatus int, message string, data any) {
	JSONResponse(c, httpStatus, SuccessCode, message, data)
}

// Error 错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	JSONResponse(c, httpStatus, code, message, nil)
}

// AbortWithError 终止请求并发送错误响应
func AbortWithError(c *gin.Context, httpStatus int, code int, message string) {
	Error(c, httpStatus, code, message)
	c.Abort() // 终止后续的 HandlerFunc
}

type mapping struct {
	target error
	status int
	code   int
}

// 顺序即优先级
var mappings = []mapping{
	{ErrShareInvalid, http.StatusNotFound, ShareInvalidCode},
	{ErrShareNotFound, http.StatusNotFound, ShareNotFoundCode},
	{ErrDocumentNotFound, http.StatusNotFound, DocumentNotFoundCode},
	{ErrFolderNotFound, http.StatusNotFound, FolderNotFoundCode},
	{ErrPermissionNotFound, http.StatusNotFound, PermissionNotFoundCode},
	{ErrProjectNotFound, http.StatusNotFound, ProjectNotFoundCode},
	{ErrUserNotFound, http.StatusNotFound, UserNotFoundCode},
	{ErrPermissionDenied, http.StatusForbidden, PermissionDeniedCode},
	{ErrForbidden, http.StatusForbidden, ForbiddenCode},
	{ErrUnauthorized, http.StatusUnauthorized, UnauthorizedCode},
	{ErrTokenInvalid, http.StatusUnauthorized, TokenInvalidCode},
	{ErrInvalidCredentials, http.StatusUnauthorized, InvalidCredentialsCode},
	{ErrPermissionAlreadyExists, http.StatusConflict, PermissionAlreadyExistsCode},
	{ErrInvalidMaxAccessCount, http.StatusConflict, InvalidMaxAccessCountCode},
	{ErrUserAlreadyExists, http.StatusConflict, UserAlreadyExistsCode},
	{ErrEmailAlreadyExists, http.StatusConflict, EmailAlreadyExistsCode},
	{ErrCannotMoveIntoSubtree, http.StatusBadRequest, CannotMoveIntoSubtreeCode},
	{ErrInvalidParams, http.StatusBadRequest, InvalidParamsCode},
	{ErrValidationFailed, http.StatusBadRequest, ValidationFailedCode},
	{ErrStorageError, http.StatusInternalServerError, StorageErrorCode},
	{ErrDatabaseError, http.StatusInternalServerError, DatabaseErrorCode},
}

// Classify 将服务层错误映射为 HTTP 状态码、业务码和对外消息
// 未知错误统一按服务器内部错误处理，不向外暴露细节
func Classify(err error) (int, int, string) {
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		for _, m := range mappings {
			if m.code == codeErr.Code {
				return m.status, m.code, m.target.Error()
			}
		}
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status, m.code, m.target.Error()
		}
	}
	return http.StatusInternalServerError, InternalServerErrorCode, ErrInternalServer.Error()
}

// FromError 根据错误类型写出错误响应
func FromError(c *gin.Context, err error) {
	status, code, msg := Classify(err)
	Error(c, status, code, msg)
}
