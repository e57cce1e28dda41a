package util

import (
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ExtractTarget 从任意输入中解析出查询目标：合法IPv4原样返回，
// 其余返回主域名（去除子域名、协议、端口、路径），无法识别时返回空字符串
func ExtractTarget(raw string) string {
	host := cleanHost(raw)
	if host == "" {
		return ""
	}
	if IsIPv4(host) {
		return host
	}
	return registrable(host)
}

// RegistrableDomain 将域名归约为“主域名”，即公共后缀加一级标签
func RegistrableDomain(name string) string {
	host := cleanHost(name)
	if host == "" || IsIPv4(host) {
		return ""
	}
	return registrable(host)
}

// registrable 在 punycode 形式上计算主域名，输入含中文等非ASCII字符时以同样形式返回
func registrable(host string) string {
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		if !isASCII(host) {
			return ""
		}
		ascii = host
	}

	suffix := icannSuffix(ascii)
	if suffix == "" || ascii == suffix || !strings.HasSuffix(ascii, "."+suffix) {
		return ""
	}

	label := strings.TrimSuffix(ascii, "."+suffix)
	if i := strings.LastIndexByte(label, '.'); i >= 0 {
		label = label[i+1:]
	}
	if label == "" {
		return ""
	}

	domain := label + "." + suffix
	if !isASCII(host) {
		if u, err := idna.ToUnicode(domain); err == nil {
			return u
		}
	}
	return domain
}

// icannSuffix 返回ICANN公共后缀；私有后缀（如 blogspot.com）向上取其ICANN部分，
// 未收录的顶级域返回空字符串
func icannSuffix(host string) string {
	suffix, icann := publicsuffix.PublicSuffix(host)
	for !icann {
		i := strings.IndexByte(suffix, '.')
		if i < 0 {
			return ""
		}
		suffix, icann = publicsuffix.PublicSuffix(suffix[i+1:])
	}
	return suffix
}

// cleanHost 去除协议、认证信息、路径、端口与末尾的点，并转为小写
func cleanHost(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, ':'); i >= 0 && isDigits(s[i+1:]) {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	return strings.ToLower(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
