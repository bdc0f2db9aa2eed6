// Package storage 封装流水线对文件系统的全部操作
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Store 流水线使用的文件系统能力
type Store interface {
	MkdirAll(dir string) error
	WriteFile(path string, data []byte) error
	ReadFile(path string) ([]byte, error)
	Exists(path string) bool
	Remove(path string) error
	RemoveAll(path string) error
	ListByPattern(dir, pattern string) ([]string, error)
	ListOlderThan(dir string, age time.Duration) ([]string, error)
	DeleteByPattern(dirs []string, pattern string) (int, error)
	DeleteOlderThan(dirs []string, age time.Duration) (int, error)
	LocalPath(path string) (string, error)
}

// FS 基于 afero 的 Store 实现
type FS struct {
	fs  afero.Fs
	now func() time.Time
}

// NewOS 使用本地文件系统
func NewOS() *FS {
	return New(afero.NewOsFs())
}

// NewMemory 使用内存文件系统，主要用于测试
func NewMemory() *FS {
	return New(afero.NewMemMapFs())
}

// New 包装任意 afero 文件系统
func New(fs afero.Fs) *FS {
	return &FS{fs: fs, now: time.Now}
}

// Fs 返回底层文件系统
func (s *FS) Fs() afero.Fs {
	return s.fs
}

// MkdirAll 创建目录及其父目录
func (s *FS) MkdirAll(dir string) error {
	return s.fs.MkdirAll(dir, 0o755)
}

// WriteFile 写入文件，自动创建父目录
func (s *FS) WriteFile(path string, data []byte) error {
	if err := s.MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, path, data, 0o644)
}

// ReadFile 读取文件
func (s *FS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// Exists 路径是否存在且为普通文件
func (s *FS) Exists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// Remove 删除单个文件，文件不存在时不报错
func (s *FS) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll 递归删除目录
func (s *FS) RemoveAll(path string) error {
	return s.fs.RemoveAll(path)
}

// ListByPattern 列出目录中文件名匹配模式的文件
//
// 模式为不区分大小写的正则表达式，只匹配文件名，不进入子目录。目录不存在时返回空列表。
func (s *FS) ListByPattern(dir, pattern string) ([]string, error) {
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return s.listFiles(dir, func(info fs.FileInfo) (bool, error) {
		return re.MatchString(info.Name())
	})
}

// ListOlderThan 列出目录中修改时间早于 age 的文件
func (s *FS) ListOlderThan(dir string, age time.Duration) ([]string, error) {
	cutoff := s.now().Add(-age)
	return s.listFiles(dir, func(info fs.FileInfo) (bool, error) {
		return info.ModTime().Before(cutoff), nil
	})
}

// DeleteByPattern 删除多个目录中文件名匹配模式的文件，返回删除数量
func (s *FS) DeleteByPattern(dirs []string, pattern string) (int, error) {
	return s.deleteEach(dirs, func(dir string) ([]string, error) {
		return s.ListByPattern(dir, pattern)
	})
}

// DeleteOlderThan 删除多个目录中过期的文件，返回删除数量
func (s *FS) DeleteOlderThan(dirs []string, age time.Duration) (int, error) {
	return s.deleteEach(dirs, func(dir string) ([]string, error) {
		return s.ListOlderThan(dir, age)
	})
}

// LocalPath 返回外部工具可直接使用的路径
//
// 只有本地文件系统上的路径才能交给外部进程，内存文件系统返回错误。
func (s *FS) LocalPath(path string) (string, error) {
	switch fsys := s.fs.(type) {
	case *afero.OsFs:
		return filepath.Abs(path)
	case *afero.BasePathFs:
		return afero.FullBaseFsPath(fsys, path), nil
	default:
		return "", fmt.Errorf("path %q is not on a local filesystem", path)
	}
}

func (s *FS) listFiles(dir string, match func(fs.FileInfo) (bool, error)) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := match(entry)
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (s *FS) deleteEach(dirs []string, list func(string) ([]string, error)) (int, error) {
	var errs error
	deleted := 0
	for _, dir := range dirs {
		files, err := list(dir)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, f := range files {
			if err := s.fs.Remove(f); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			deleted++
		}
	}
	return deleted, errs
}
