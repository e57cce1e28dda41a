package query

import (
	"context"
	"encoding/json"
	"fmt"

	"beian/internal/model"
	"beian/internal/util"
)

// RegistrationLookup 查询域名的ICP备案信息
type RegistrationLookup struct {
	client   *Client
	endpoint string
}

func NewRegistrationLookup(client *Client, endpoint string) *RegistrationLookup {
	return &RegistrationLookup{client: client, endpoint: endpoint}
}

// Lookup 各字段独立提取，缺失字段为空；请求失败或响应不是JSON时返回 StatusConnError
func (r *RegistrationLookup) Lookup(ctx context.Context, domain string) model.RegistrationRecord {
	body, _, err := r.client.Get(ctx, "ICP", buildURL(r.endpoint, domain), nil)
	if err != nil {
		util.Logger.Debugf("[ICP] 查询失败: %s -> %v", domain, err)
		return model.RegistrationRecord{Status: model.StatusConnError}
	}

	record, err := parseRegistration(body)
	if err != nil {
		util.Logger.Debugf("[ICP] 响应解析失败: %s -> %v", domain, err)
		return model.RegistrationRecord{Status: model.StatusConnError}
	}
	return record
}

func parseRegistration(body []byte) (model.RegistrationRecord, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.RegistrationRecord{}, fmt.Errorf("json unmarshal failed: %w", err)
	}

	info, _ := payload["info"].(map[string]interface{})
	return model.RegistrationRecord{
		Status:           model.StatusOK,
		OrganizationName: stringFromAny(info["name"]),
		OrganizationType: stringFromAny(info["nature"]),
		RegistrationID:   stringFromAny(info["icp"]),
		PageTitle:        stringFromAny(info["title"]),
	}, nil
}
