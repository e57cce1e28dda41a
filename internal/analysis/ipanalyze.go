package analysis

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"beian/internal/util"
)

// SharedHostThreshold 同一IP上输出的域名数达到该值时视为共享主机
const SharedHostThreshold = 5

// IPAnalysisResult 表示IP分析结果
type IPAnalysisResult struct {
	IP          string
	DomainCount int
	Domains     []string
}

// AnalyzeSharedHosting 统计每个IP目标反查出的域名数量，返回数量不少于 threshold 的IP。
// 域名目标的 domain 与 target 相同，不参与统计
func AnalyzeSharedHosting(db *sql.DB, tableName string, threshold int) ([]IPAnalysisResult, error) {
	rows, err := sq.Select("target", "COUNT(DISTINCT domain) AS domain_count", "GROUP_CONCAT(DISTINCT domain)").
		From(tableName).
		Where("target != domain").
		GroupBy("target").
		Having("domain_count >= ?", threshold).
		OrderBy("domain_count DESC", "target").
		RunWith(db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("查询IP域名数量失败: %w", err)
	}
	defer rows.Close()

	var results []IPAnalysisResult
	for rows.Next() {
		var (
			ip, domainsStr string
			count          int
		)
		if err := rows.Scan(&ip, &count, &domainsStr); err != nil {
			return nil, err
		}

		domains := removeDuplicates(strings.Split(domainsStr, ","))
		sort.Strings(domains)
		results = append(results, IPAnalysisResult{
			IP:          ip,
			DomainCount: count,
			Domains:     domains,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	util.Logger.Debugf("发现 %d 个共享主机IP", len(results))
	return results, nil
}

// removeDuplicates 去除字符串切片中的重复项与空串
func removeDuplicates(slice []string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, item := range slice {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}

	return result
}
