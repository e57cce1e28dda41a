//go:build windows

package desktop

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const shellFoldersKey = `Software\Microsoft\Windows\CurrentVersion\Explorer\Shell Folders`

type platformResolver struct{}

// DesktopDir 读取 HKCU 下 Shell Folders 的 Desktop 值
func (platformResolver) DesktopDir() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, shellFoldersKey, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("打开注册表项失败: %w", err)
	}
	defer key.Close()

	path, _, err := key.GetStringValue("Desktop")
	if err != nil {
		return "", fmt.Errorf("读取 Desktop 注册表值失败: %w", err)
	}
	return path, nil
}
