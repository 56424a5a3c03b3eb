package mapper

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/go-viper/mapstructure/v2"
)

// FolderToMap 将 models.Folder 转换成写入 Redis hash 的字段
// nil 的 parentId 存为空字符串，读回时还原为根目录
func FolderToMap(folder *models.Folder) map[string]any {
	parent := ""
	if folder.ParentID != nil {
		parent = strconv.FormatUint(*folder.ParentID, 10)
	}
	return map[string]any{
		"id":        strconv.FormatUint(folder.ID, 10),
		"parentId":  parent,
		"name":      folder.Name,
		"ownerId":   strconv.FormatUint(folder.OwnerID, 10),
		"createdAt": formatTime(folder.CreatedAt),
		"updatedAt": formatTime(folder.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// stringHook 把 hash 中的字符串转换为目标字段类型
func stringHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	s := data.(string)

	if s == "" {
		if t.Kind() == reflect.Ptr {
			return nil, nil
		}
		return reflect.Zero(t).Interface(), nil
	}

	if t == reflect.TypeOf(time.Time{}) {
		return time.Parse(time.RFC3339Nano, s)
	}

	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(s, 10, 64)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(s, 10, 64)
	case reflect.Ptr:
		switch t.Elem().Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			val, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil, err
			}
			ptr := reflect.New(t.Elem())
			ptr.Elem().SetUint(val)
			return ptr.Interface(), nil
		}
	}
	return data, nil
}

// MapToFolder 将 Redis hash 映射回 models.Folder
func MapToFolder(dataMap map[string]string) (*models.Folder, error) {
	var folder models.Folder

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &folder,
		TagName:    "json", // 使用 'json' 标签来匹配 map 的键和结构体字段
		DecodeHook: mapstructure.ComposeDecodeHookFunc(stringHook),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create map decoder: %w", err)
	}

	if err := decoder.Decode(dataMap); err != nil {
		return nil, fmt.Errorf("failed to decode map to Folder struct: %w", err)
	}
	if folder.ID == 0 {
		return nil, fmt.Errorf("cached folder has no id")
	}
	return &folder, nil
}
