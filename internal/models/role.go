package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role 用户在组织中的角色，按信任度全序排列
// 零值不是合法角色，便于 binding:"required" 拦截缺失字段
type Role uint8

const (
	RoleGuest       Role = iota + 1 // 访客
	RoleContributor                 // 贡献者
	RoleStaff                       // 员工
	RoleSuperAdmin                  // 超级管理员，无条件通过所有权限检查
)

// AllRoles 按信任度从低到高
var AllRoles = []Role{RoleGuest, RoleContributor, RoleStaff, RoleSuperAdmin}

// Rank 返回角色的信任度排名，非法角色返回 0
func (r Role) Rank() int {
	switch r {
	case RoleGuest:
		return 1
	case RoleContributor:
		return 2
	case RoleStaff:
		return 3
	case RoleSuperAdmin:
		return 4
	}
	return 0
}

func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "GUEST"
	case RoleContributor:
		return "CONTRIBUTOR"
	case RoleStaff:
		return "STAFF"
	case RoleSuperAdmin:
		return "SUPER_ADMIN"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid 是否为四种合法角色之一
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// AtLeast 信任度是否不低于 other
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && r.Rank() >= other.Rank()
}

// ParseRole 严格解析线上格式的角色字符串
func ParseRole(s string) (Role, error) {
	switch s {
	case "GUEST":
		return RoleGuest, nil
	case "CONTRIBUTOR":
		return RoleContributor, nil
	case "STAFF":
		return RoleStaff, nil
	case "SUPER_ADMIN":
		return RoleSuperAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid role %d", uint8(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role must be a string: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value 以字符串形式落库，保持与线上格式一致
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot store invalid role %d", uint8(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Permission 文件夹权限级别，ADMIN 蕴含 WRITE，WRITE 蕴含 READ
type Permission uint8

const (
	PermissionRead Permission = iota + 1
	PermissionWrite
	PermissionAdmin
)

var AllPermissions = []Permission{PermissionRead, PermissionWrite, PermissionAdmin}

// Rank 返回权限级别排名，非法权限返回 0
func (p Permission) Rank() int {
	switch p {
	case PermissionRead:
		return 1
	case PermissionWrite:
		return 2
	case PermissionAdmin:
		return 3
	}
	return 0
}

func (p Permission) String() string {
	switch p {
	case PermissionRead:
		return "READ"
	case PermissionWrite:
		return "WRITE"
	case PermissionAdmin:
		return "ADMIN"
	}
	return fmt.Sprintf("Permission(%d)", uint8(p))
}

func (p Permission) Valid() bool {
	return p.Rank() > 0
}

// Satisfies 当前权限是否满足 required；任一方非法都不满足
func (p Permission) Satisfies(required Permission) bool {
	if !p.Valid() || !required.Valid() {
		return false
	}
	return p.Rank() >= required.Rank()
}

func ParsePermission(s string) (Permission, error) {
	switch s {
	case "READ":
		return PermissionRead, nil
	case "WRITE":
		return PermissionWrite, nil
	case "ADMIN":
		return PermissionAdmin, nil
	}
	return 0, fmt.Errorf("unknown permission %q", s)
}

func (p Permission) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid permission %d", uint8(p))
	}
	return json.Marshal(p.String())
}

func (p *Permission) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("permission must be a string: %w", err)
	}
	parsed, err := ParsePermission(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Permission) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot store invalid permission %d", uint8(p))
	}
	return p.String(), nil
}

func (p *Permission) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Permission", value)
	}
	parsed, err := ParsePermission(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Actor 发起内部请求的已认证用户
type Actor struct {
	UserID uint64
	Role   Role
}
