//go:build !windows

package desktop

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type platformResolver struct{}

// DesktopDir 依次尝试 XDG_DESKTOP_DIR、user-dirs.dirs 与 ~/Desktop
func (platformResolver) DesktopDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("获取用户目录失败: %w", err)
	}
	return xdgDesktop(home, os.Getenv, os.ReadFile), nil
}

func xdgDesktop(home string, getenv func(string) string, readFile func(string) ([]byte, error)) string {
	if dir := getenv("XDG_DESKTOP_DIR"); dir != "" {
		return expandHome(dir, home)
	}

	configHome := getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	if data, err := readFile(filepath.Join(configHome, "user-dirs.dirs")); err == nil {
		if dir := parseUserDirs(data, "XDG_DESKTOP_DIR"); dir != "" {
			return expandHome(dir, home)
		}
	}

	return filepath.Join(home, "Desktop")
}

// parseUserDirs 解析 xdg-user-dirs 生成的 KEY="value" 行
func parseUserDirs(data []byte, key string) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(name) != key {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `"`)
	}
	return ""
}

func expandHome(dir, home string) string {
	switch {
	case dir == "$HOME":
		return home
	case strings.HasPrefix(dir, "$HOME/"):
		return filepath.Join(home, dir[len("$HOME/"):])
	case strings.HasPrefix(dir, "~/"):
		return filepath.Join(home, dir[2:])
	}
	return dir
}
