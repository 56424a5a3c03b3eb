package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ShareLink 对应 share_links 表
// 链接从不删除，撤销是终态
type ShareLink struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Token          string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	DocumentID     uint64     `gorm:"not null;index" json:"documentId"`
	CreatedByID    uint64     `gorm:"not null" json:"createdById"`
	CreatedAt      time.Time  `gorm:"not null" json:"createdAt"`
	ExpiresAt      *time.Time `gorm:"default:null" json:"expiresAt"`
	MaxAccessCount *int64     `gorm:"default:null" json:"maxAccessCount"`
	AccessCount    int64      `gorm:"not null;default:0" json:"accessCount"`
	RevokedAt      *time.Time `gorm:"default:null" json:"revokedAt,omitempty"`
}

func (ShareLink) TableName() string {
	return "share_links"
}

// ShareStatus 分享链接的状态，REVOKED 只出现在日志里
type ShareStatus uint8

const (
	ShareActive ShareStatus = iota + 1
	ShareExpired
	ShareExhausted
	ShareRevoked
)

func (s ShareStatus) String() string {
	switch s {
	case ShareActive:
		return "ACTIVE"
	case ShareExpired:
		return "EXPIRED"
	case ShareExhausted:
		return "EXHAUSTED"
	case ShareRevoked:
		return "REVOKED"
	}
	return fmt.Sprintf("ShareStatus(%d)", uint8(s))
}

func (s ShareStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Status 计算链接在 now 时刻的状态，撤销优先于过期，过期优先于用尽
func (l *ShareLink) Status(now time.Time) ShareStatus {
	switch {
	case l.RevokedAt != nil:
		return ShareRevoked
	case l.ExpiresAt != nil && !now.Before(*l.ExpiresAt):
		return ShareExpired
	case l.MaxAccessCount != nil && l.AccessCount >= *l.MaxAccessCount:
		return ShareExhausted
	}
	return ShareActive
}

// ExpiresIn 分享链接有效期选项
type ExpiresIn uint8

const (
	ExpiresOneHour ExpiresIn = iota + 1
	ExpiresOneDay
	ExpiresSevenDays
	ExpiresThirtyDays
	ExpiresNever
)

func (e ExpiresIn) String() string {
	switch e {
	case ExpiresOneHour:
		return "ONE_HOUR"
	case ExpiresOneDay:
		return "ONE_DAY"
	case ExpiresSevenDays:
		return "SEVEN_DAYS"
	case ExpiresThirtyDays:
		return "THIRTY_DAYS"
	case ExpiresNever:
		return "NEVER"
	}
	return fmt.Sprintf("ExpiresIn(%d)", uint8(e))
}

// Duration 返回有效期长度，NEVER 返回 ok=false
func (e ExpiresIn) Duration() (d time.Duration, ok bool) {
	switch e {
	case ExpiresOneHour:
		return time.Hour, true
	case ExpiresOneDay:
		return 24 * time.Hour, true
	case ExpiresSevenDays:
		return 7 * 24 * time.Hour, true
	case ExpiresThirtyDays:
		return 30 * 24 * time.Hour, true
	case ExpiresNever:
		return 0, false
	}
	return 0, false
}

func (e ExpiresIn) Valid() bool {
	switch e {
	case ExpiresOneHour, ExpiresOneDay, ExpiresSevenDays, ExpiresThirtyDays, ExpiresNever:
		return true
	}
	return false
}

func ParseExpiresIn(s string) (ExpiresIn, error) {
	switch s {
	case "ONE_HOUR":
		return ExpiresOneHour, nil
	case "ONE_DAY":
		return ExpiresOneDay, nil
	case "SEVEN_DAYS":
		return ExpiresSevenDays, nil
	case "THIRTY_DAYS":
		return ExpiresThirtyDays, nil
	case "NEVER":
		return ExpiresNever, nil
	}
	return 0, fmt.Errorf("unknown expiresIn %q", s)
}

func (e ExpiresIn) MarshalJSON() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid expiresIn %d", uint8(e))
	}
	return json.Marshal(e.String())
}

func (e *ExpiresIn) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expiresIn must be a string: %w", err)
	}
	parsed, err := ParseExpiresIn(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
