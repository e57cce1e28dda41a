package query

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"beian/internal/model"
	"beian/internal/util"
)

// MaxRank 百度权重上限
const MaxRank = 10

// 爱站百度权重图标，例如 //statics.aizhan.com/images/br/7.png
var rankRegexp = regexp.MustCompile(`aizhan\.com/images/br/([0-9]+)\.png`)

var errRankNotFound = errors.New("rank image not found")

// RankLookup 通过爱站页面查询百度权重
type RankLookup struct {
	client   *Client
	endpoint string
}

// NewRankLookup client 的证书校验策略由调用方决定
func NewRankLookup(client *Client, endpoint string) *RankLookup {
	return &RankLookup{client: client, endpoint: endpoint}
}

// Rank 查询失败返回 StatusConnError，页面中无权重返回 StatusPageError，两者权重均为 -1
func (r *RankLookup) Rank(ctx context.Context, domain string) model.RankResult {
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, contentType, err := r.client.Get(ctx, "Rank", buildURL(r.endpoint, domain), header)
	if err != nil {
		util.Logger.Debugf("[Rank] 查询失败: %s -> %v", domain, err)
		return model.RankResult{Status: model.StatusConnError, Rank: model.NoRank}
	}

	rank, err := parseRank(decodePage(body, contentType))
	if err != nil {
		util.Logger.Debugf("[Rank] 页面解析失败: %s -> %v", domain, err)
		return model.RankResult{Status: model.StatusPageError, Rank: model.NoRank}
	}
	return model.RankResult{Status: model.StatusOK, Rank: rank}
}

// decodePage 按响应头与页面meta探测编码并转为UTF-8
func decodePage(data []byte, contentType string) []byte {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

// parseRank 优先在 <img src> 中查找权重图标，找不到再对整页正则匹配
func parseRank(page []byte) (int, error) {
	match := ""
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page)); err == nil {
		doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := rankRegexp.FindStringSubmatch(s.AttrOr("src", "")); m != nil {
				match = m[1]
				return false
			}
			return true
		})
	}
	if match == "" {
		if m := rankRegexp.FindSubmatch(page); m != nil {
			match = string(m[1])
		}
	}
	if match == "" {
		return model.NoRank, errRankNotFound
	}

	rank, err := strconv.Atoi(match)
	if err != nil || rank > MaxRank {
		return model.NoRank, errRankNotFound
	}
	return rank, nil
}
