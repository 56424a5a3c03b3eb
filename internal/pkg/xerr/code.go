package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode         = 40000 // 无效的请求参数
	ValidationFailedCode      = 40001 // 参数验证失败
	CannotMoveIntoSubtreeCode = 40008 // 不能移动目录到其子目录下

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 用户名或密码错误

	// --- 权限错误系列 (403xx) ---
	ForbiddenCode        = 40300 // 通用无权限
	PermissionDeniedCode = 40301 // 权限不足 (细分)

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode           = 40400 // 通用资源未找到
	UserNotFoundCode       = 40401 // 用户不存在
	DocumentNotFoundCode   = 40402 // 文档不存在
	FolderNotFoundCode     = 40403 // 目录不存在
	ShareInvalidCode       = 40404 // 分享链接无效（不存在、已撤销、已过期、次数用尽统一返回）
	ShareNotFoundCode      = 40405 // 管理接口中分享链接不存在
	PermissionNotFoundCode = 40406 // 目录授权不存在
	ProjectNotFoundCode    = 40407 // 项目不存在

	// --- 业务逻辑冲突系列 (409xx) ---
	UserAlreadyExistsCode       = 40900 // 用户名已存在
	EmailAlreadyExistsCode      = 40901 // 邮箱已存在
	PermissionAlreadyExistsCode = 40902 // 该角色在目录上已有授权
	InvalidMaxAccessCountCode   = 40903 // 最大访问次数必须为正数

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储服务操作失败（如MinIO）
	CacheErrorCode          = 50003 // 缓存操作失败
)
