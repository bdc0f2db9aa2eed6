package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *FS, files map[string]time.Time) {
	t.Helper()
	for path, mtime := range files {
		require.NoError(t, s.WriteFile(path, []byte(path)))
		require.NoError(t, s.Fs().Chtimes(path, mtime, mtime))
	}
}

func TestBasicOperations(t *testing.T) {
	s := NewMemory()

	require.NoError(t, s.WriteFile("/work/a/b/file.txt", []byte("hello")))
	assert.True(t, s.Exists("/work/a/b/file.txt"))
	assert.False(t, s.Exists("/work/a/b"), "目录不算文件")

	data, err := s.ReadFile("/work/a/b/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Remove("/work/a/b/file.txt"))
	assert.False(t, s.Exists("/work/a/b/file.txt"))
	assert.NoError(t, s.Remove("/work/a/b/file.txt"), "重复删除不报错")

	require.NoError(t, s.WriteFile("/work/x/y.txt", nil))
	require.NoError(t, s.RemoveAll("/work"))
	assert.False(t, s.Exists("/work/x/y.txt"))
}

func TestListByPattern(t *testing.T) {
	s := NewMemory()
	now := time.Now()
	seed(t, s, map[string]time.Time{
		"/out/Report_fr.pdf":       now,
		"/out/report_fr.html":      now,
		"/out/other_de.pdf":        now,
		"/out/sub/report_fr.pdf":   now,
		"/out/résumé_fr.pdf":       now,
	})

	t.Run("不区分大小写且只匹配文件名", func(t *testing.T) {
		files, err := s.ListByPattern("/out", `^report_fr\.`)
		require.NoError(t, err)
		assert.Equal(t, []string{"/out/Report_fr.pdf", "/out/report_fr.html"}, files)
	})

	t.Run("支持 Unicode", func(t *testing.T) {
		files, err := s.ListByPattern("/out", `RÉSUMÉ`)
		require.NoError(t, err)
		assert.Equal(t, []string{"/out/résumé_fr.pdf"}, files)
	})

	t.Run("目录不存在", func(t *testing.T) {
		files, err := s.ListByPattern("/missing", `.*`)
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("非法模式", func(t *testing.T) {
		_, err := s.ListByPattern("/out", `(`)
		assert.Error(t, err)
	})
}

func TestSweeps(t *testing.T) {
	s := NewMemory()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	seed(t, s, map[string]time.Time{
		"/files/translate/old.pdf":   now.Add(-2 * time.Hour),
		"/files/translate/new.pdf":   now.Add(-10 * time.Minute),
		"/files/tmp/old_part001.pdf": now.Add(-90 * time.Minute),
		"/files/tmp/keep.html":       now,
	})

	t.Run("列出过期文件", func(t *testing.T) {
		files, err := s.ListOlderThan("/files/translate", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, []string{"/files/translate/old.pdf"}, files)
	})

	t.Run("按过期时间删除", func(t *testing.T) {
		n, err := s.DeleteOlderThan([]string{"/files/translate", "/files/tmp", "/files/none"}, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.True(t, s.Exists("/files/translate/new.pdf"))
		assert.True(t, s.Exists("/files/tmp/keep.html"))
		assert.False(t, s.Exists("/files/translate/old.pdf"))
	})

	t.Run("按模式删除", func(t *testing.T) {
		n, err := s.DeleteByPattern([]string{"/files/translate", "/files/tmp"}, `\.(html|pdf)$`)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("模式错误会聚合返回", func(t *testing.T) {
		_, err := s.DeleteByPattern([]string{"/a", "/b"}, `[`)
		assert.Error(t, err)
	})
}

func TestLocalPath(t *testing.T) {
	_, err := NewMemory().LocalPath("/x.pdf")
	assert.Error(t, err)

	dir := t.TempDir()
	p, err := NewOS().LocalPath(filepath.Join(dir, "x.pdf"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.pdf"), p)

	based := New(afero.NewBasePathFs(afero.NewOsFs(), dir))
	p, err = based.LocalPath("/y.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "y.pdf"), p)
}
