package xerr

import "errors"

var (
	// 通用错误
	ErrSuccess        = errors.New("操作成功")
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams         = errors.New("无效的请求参数")
	ErrValidationFailed      = errors.New("参数验证失败")
	ErrCannotMoveIntoSubtree = errors.New("不能移动目录到其自身或子目录下")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrTokenInvalid       = errors.New("认证 Token 无效或已过期")
	ErrInvalidCredentials = errors.New("用户名或密码不正确")
	ErrUserAlreadyExists  = errors.New("该用户名已被注册")
	ErrEmailAlreadyExists = errors.New("邮箱已被注册")

	// 权限错误
	ErrForbidden        = errors.New("禁止访问")
	ErrPermissionDenied = errors.New("您没有操作此资源的权限")

	// 资源未找到错误
	ErrUserNotFound       = errors.New("用户不存在")
	ErrDocumentNotFound   = errors.New("文档不存在")
	ErrFolderNotFound     = errors.New("目录不存在")
	ErrShareInvalid       = errors.New("分享链接无效或已失效")
	ErrShareNotFound      = errors.New("分享链接不存在")
	ErrPermissionNotFound = errors.New("目录授权不存在")
	ErrProjectNotFound    = errors.New("项目不存在")

	// 业务逻辑冲突
	ErrPermissionAlreadyExists = errors.New("该角色在此目录上已存在授权")
	ErrInvalidMaxAccessCount   = errors.New("最大访问次数必须为正整数")

	// 数据库与外部服务错误
	ErrDatabaseError = errors.New("数据库操作失败")
	ErrStorageError  = errors.New("存储服务操作失败")
)
