package query

import (
	"net/url"
	"strconv"
	"strings"

	"beian/internal/config"
)

// stringFromAny 助手函数，interface{}转string
func stringFromAny(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// buildURL 将接口模板中的占位符替换为目标
func buildURL(template, target string) string {
	return strings.ReplaceAll(template, config.TargetPlaceholder, url.QueryEscape(target))
}
