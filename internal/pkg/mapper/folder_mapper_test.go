package mapper

import (
	"fmt"
	"testing"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Redis 返回的都是字符串，模拟一次写入再读出
func toStringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func TestFolderMapper_ChildFolder(t *testing.T) {
	parent := uint64(7)
	created := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	in := &models.Folder{ID: 12, ParentID: &parent, Name: "合同", OwnerID: 3, CreatedAt: created}

	out, err := MapToFolder(toStringMap(FolderToMap(in)))
	require.NoError(t, err)

	assert.Equal(t, uint64(12), out.ID)
	require.NotNil(t, out.ParentID)
	assert.Equal(t, uint64(7), *out.ParentID)
	assert.Equal(t, "合同", out.Name)
	assert.Equal(t, uint64(3), out.OwnerID)
	assert.True(t, created.Equal(out.CreatedAt))
	assert.True(t, out.UpdatedAt.IsZero())
}

func TestFolderMapper_RootFolderKeepsNilParent(t *testing.T) {
	out, err := MapToFolder(toStringMap(FolderToMap(&models.Folder{ID: 1, Name: "root", OwnerID: 1})))
	require.NoError(t, err)
	assert.Nil(t, out.ParentID)
	assert.True(t, out.IsRoot())
}

func TestMapToFolder_Invalid(t *testing.T) {
	_, err := MapToFolder(map[string]string{"id": "abc"})
	assert.Error(t, err)

	_, err = MapToFolder(map[string]string{"name": "no id"})
	assert.Error(t, err)
}
