package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"beian/internal/model"
)

// RankCount 某一权重（或错误标记）对应的结果行数
type RankCount struct {
	Label string
	Count int
}

// RankDistribution 按权重从高到低统计，错误标记排在最后
func RankDistribution(db *sql.DB, tableName string) ([]RankCount, error) {
	rows, err := sq.Select("rank_status", "rank", "COUNT(*)").
		From(tableName).
		GroupBy("rank_status", "rank").
		OrderBy("rank_status", "rank DESC").
		RunWith(db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("统计权重分布失败: %w", err)
	}
	defer rows.Close()

	var result []RankCount
	for rows.Next() {
		var status, rank, count int
		if err := rows.Scan(&status, &rank, &count); err != nil {
			return nil, err
		}

		label := model.Status(status).String()
		if model.Status(status) == model.StatusOK {
			label = strconv.Itoa(rank)
		}
		result = append(result, RankCount{Label: label, Count: count})
	}
	return result, rows.Err()
}

// FormatDistribution 格式化为 "7:1 5:2 ConnError:1"
func FormatDistribution(dist []RankCount) string {
	parts := make([]string, 0, len(dist))
	for _, d := range dist {
		parts = append(parts, fmt.Sprintf("%s:%d", d.Label, d.Count))
	}
	return strings.Join(parts, " ")
}
