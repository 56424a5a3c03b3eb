package models

import "time"

// Folder 对应 folders 表，ParentID 为 nil 表示根目录
type Folder struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentID  *uint64   `gorm:"index;default:null" json:"parentId"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	OwnerID   uint64    `gorm:"not null;index" json:"ownerId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Folder) TableName() string {
	return "folders"
}

// IsRoot 是否为根目录
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// FolderPermission 某个角色在某个目录上的授权，(folder_id, role) 唯一
type FolderPermission struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FolderID   uint64     `gorm:"not null;uniqueIndex:idx_folder_role" json:"folderId"`
	Role       Role       `gorm:"type:varchar(16);not null;uniqueIndex:idx_folder_role" json:"role"`
	Permission Permission `gorm:"type:varchar(16);not null" json:"permission"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (FolderPermission) TableName() string {
	return "folder_permissions"
}
