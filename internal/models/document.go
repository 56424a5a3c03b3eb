package models

import "time"

// Document 对应 documents 表，只保留权限检查和分享下载需要的字段
type Document struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FolderID  uint64    `gorm:"not null;index" json:"folderId"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	OssBucket *string   `gorm:"type:varchar(64);default:null" json:"-"`
	OssKey    string    `gorm:"type:varchar(255);not null" json:"-"`
	MimeType  string    `gorm:"type:varchar(128);not null;default:''" json:"mimeType"`
	Size      uint64    `gorm:"type:bigint unsigned;not null;default:0" json:"size"`
	OwnerID   uint64    `gorm:"not null;index" json:"ownerId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Document) TableName() string {
	return "documents"
}

// Project 对应 projects 表，成员管理不在本服务范围内
type Project struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	OwnerID   uint64    `gorm:"not null;index" json:"ownerId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectDocument 项目与文档的关联，(project_id, document_id) 唯一
type ProjectDocument struct {
	ProjectID  uint64    `gorm:"primaryKey" json:"projectId"`
	DocumentID uint64    `gorm:"primaryKey" json:"documentId"`
	LinkedByID uint64    `gorm:"not null" json:"linkedById"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (ProjectDocument) TableName() string {
	return "project_documents"
}
