package util

import (
	"fmt"
	"time"
)

// DefaultCSVName 默认结果文件名
const DefaultCSVName = "批量备案查询结果.csv"

// GenerateTaskID 生成统一的任务ID
func GenerateTaskID() string {
	return taskIDAt(time.Now())
}

func taskIDAt(now time.Time) string {
	dateStr := now.Format("20060102")
	tsStr := fmt.Sprintf("%d", now.Unix())
	shortTS := tsStr[len(tsStr)-8:]
	return fmt.Sprintf("%s_%s", dateStr, shortTS)
}

// GenerateTableName 生成暂存结果的数据库表名
func GenerateTableName(taskID string) string {
	return fmt.Sprintf("task_%s", taskID)
}
