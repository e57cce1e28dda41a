package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"beian/internal/model"
	"beian/internal/util"
)

// ReverseIPResolver 通过 webscan 接口反查IP上的域名
type ReverseIPResolver struct {
	client   *Client
	endpoint string
}

// NewReverseIPResolver endpoint 为带 {target} 占位符的接口模板
func NewReverseIPResolver(client *Client, endpoint string) *ReverseIPResolver {
	return &ReverseIPResolver{client: client, endpoint: endpoint}
}

// Resolve 返回IP上托管的主域名列表，任何失败都折叠为 StatusConnError
func (r *ReverseIPResolver) Resolve(ctx context.Context, ip string) model.ReverseResolution {
	result := model.ReverseResolution{SourceIP: ip, Domains: []string{}}

	domains, empty, err := r.resolve(ctx, ip)
	if err != nil {
		util.Logger.Debugf("[ReverseIP] 查询失败: %s -> %v", ip, err)
		result.Status = model.StatusConnError
		return result
	}
	if empty {
		result.Status = model.StatusEmpty
		return result
	}

	result.Status = model.StatusOK
	result.Domains = domains
	return result
}

func (r *ReverseIPResolver) resolve(ctx context.Context, ip string) ([]string, bool, error) {
	body, _, err := r.client.Get(ctx, "ReverseIP", buildURL(r.endpoint, ip), nil)
	if err != nil {
		return nil, false, err
	}

	body = bytes.TrimSpace(body)
	if string(body) == "null" {
		return nil, true, nil
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, false, fmt.Errorf("json unmarshal failed: %w", err)
	}
	return collectDomains(records), false, nil
}

// collectDomains 过滤IP形式的记录，归约为主域名并按首次出现顺序去重
func collectDomains(records []map[string]interface{}) []string {
	domains := make([]string, 0, len(records))
	seen := make(map[string]bool)

	for _, record := range records {
		name := stringFromAny(record["domain"])
		if name == "" || util.IsIPv4(name) {
			continue
		}
		mainDomain := util.RegistrableDomain(name)
		if mainDomain == "" || seen[mainDomain] {
			continue
		}
		seen[mainDomain] = true
		domains = append(domains, mainDomain)
	}
	return domains
}
