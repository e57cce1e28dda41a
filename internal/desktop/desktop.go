// Package desktop 解析结果文件的默认输出目录（当前用户桌面）。
package desktop

import (
	"fmt"
	"os"
	"path/filepath"

	"beian/internal/util"
)

// Resolver 返回当前用户的桌面目录
type Resolver interface {
	DesktopDir() (string, error)
}

// NewResolver 返回当前平台的实现
func NewResolver() Resolver {
	return platformResolver{}
}

// Fallback 桌面目录无法解析或不存在时使用 Dir
type Fallback struct {
	Primary Resolver
	Dir     string
}

func (f Fallback) DesktopDir() (string, error) {
	if f.Primary != nil {
		dir, err := f.Primary.DesktopDir()
		if err == nil && isDir(dir) {
			return dir, nil
		}
		if err != nil {
			util.Logger.Debugf("解析桌面目录失败: %v", err)
		}
	}

	if f.Dir == "" {
		return "", fmt.Errorf("未找到桌面目录且未配置输出目录")
	}
	return f.Dir, nil
}

// OutputPath 显式指定的路径优先，否则为 <桌面>/<fileName>
func OutputPath(explicit, fileName string, r Resolver) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if fileName == "" {
		fileName = util.DefaultCSVName
	}

	dir, err := r.DesktopDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
