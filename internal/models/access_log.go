package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AccessAction 审计日志记录的动作
type AccessAction uint8

const (
	ActionView AccessAction = iota + 1
	ActionDownload
	ActionShareCreated
	ActionShareRevoked
)

func (a AccessAction) String() string {
	switch a {
	case ActionView:
		return "VIEW"
	case ActionDownload:
		return "DOWNLOAD"
	case ActionShareCreated:
		return "SHARE_CREATED"
	case ActionShareRevoked:
		return "SHARE_REVOKED"
	}
	return fmt.Sprintf("AccessAction(%d)", uint8(a))
}

func ParseAccessAction(s string) (AccessAction, error) {
	switch s {
	case "VIEW":
		return ActionView, nil
	case "DOWNLOAD":
		return ActionDownload, nil
	case "SHARE_CREATED":
		return ActionShareCreated, nil
	case "SHARE_REVOKED":
		return ActionShareRevoked, nil
	}
	return 0, fmt.Errorf("unknown access action %q", s)
}

func (a AccessAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AccessAction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAccessAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a AccessAction) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *AccessAction) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into AccessAction", value)
	}
	parsed, err := ParseAccessAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AccessLog 对应 access_logs 表，只追加不修改
// EventID 用于重试写入时去重
type AccessLog struct {
	ID          uint64       `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID     string       `gorm:"type:varchar(36);uniqueIndex;not null" json:"eventId"`
	DocumentID  uint64       `gorm:"not null;index" json:"documentId"`
	Action      AccessAction `gorm:"type:varchar(16);not null" json:"action"`
	UserID      *uint64      `gorm:"default:null" json:"userId"`
	ShareLinkID *uint64      `gorm:"default:null;index" json:"shareLinkId"`
	IPAddress   *string      `gorm:"type:varchar(64);default:null" json:"ipAddress"`
	CreatedAt   time.Time    `gorm:"not null" json:"createdAt"`
}

func (AccessLog) TableName() string {
	return "access_logs"
}
