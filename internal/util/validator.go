package util

import (
	"net"
	"regexp"
	"strings"
)

var (
	// IPv4 点分十进制，每段 0-255，允许前导零
	ipv4Regexp = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)

	// 私有 IP 网段（内网）
	privateCIDRs = []*net.IPNet{
		mustCIDR("10.0.0.0/8"),
		mustCIDR("172.16.0.0/12"),
		mustCIDR("192.168.0.0/16"),
		mustCIDR("127.0.0.0/8"),    // Loopback
		mustCIDR("169.254.0.0/16"), // Link-local
	}
)

// mustCIDR 用于初始化 IP 网段
func mustCIDR(cidr string) *net.IPNet {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		panic("invalid CIDR: " + cidr)
	}
	return ipnet
}

// IsIPv4 判断字符串是否为点分十进制IPv4地址
func IsIPv4(s string) bool {
	return ipv4Regexp.MatchString(s)
}

// IsPrivateIP 判断是否为内网 IP，无法解析时返回 false
func IsPrivateIP(s string) bool {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return false
	}
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
