package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"beian/internal/model"
)

// MemoryDSN 本次运行内有效的内存库，进程退出即销毁
const MemoryDSN = ":memory:"

var resultColumns = []string{
	"target", "domain", "rank_status", "rank",
	"unit_name", "unit_type", "unit_icp", "title", "icp_status",
}

// InitDB 初始化 SQLite 数据库和结果暂存表
func InitDB(dbPath string, tableName string) (*sql.DB, error) {
	if dbPath != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// 内存库每个连接都是独立的数据库
	db.SetMaxOpenConns(1)

	// 设置数据库编码为UTF-8
	if _, err := db.Exec("PRAGMA encoding = 'UTF-8'"); err != nil {
		db.Close()
		return nil, err
	}

	createStmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    target TEXT NOT NULL,
    domain TEXT NOT NULL,
    rank_status INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    unit_name TEXT,
    unit_type TEXT,
    unit_icp TEXT,
    title TEXT,
    icp_status INTEGER
);
`, tableName)

	if _, err := db.Exec(createStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建结果表失败: %w", err)
	}
	return db, nil
}

// SaveResults 按输出顺序写入结果行
func SaveResults(db *sql.DB, tableName string, rows []model.ResultRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	for _, r := range rows {
		_, err := sq.Insert(tableName).
			Columns(resultColumns...).
			Values(
				r.Target,
				r.Domain,
				int(r.Rank.Status),
				r.Rank.Rank,
				r.Registration.OrganizationName,
				r.Registration.OrganizationType,
				r.Registration.RegistrationID,
				r.Registration.PageTitle,
				int(r.Registration.Status),
			).
			RunWith(tx).
			Exec()
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("写入结果失败 %s/%s: %w", r.Target, r.Domain, err)
		}
	}

	return tx.Commit()
}

// LoadResults 按写入顺序读出全部结果行
func LoadResults(db *sql.DB, tableName string) ([]model.ResultRow, error) {
	rows, err := sq.Select(resultColumns...).
		From(tableName).
		OrderBy("id").
		RunWith(db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("查询结果失败: %w", err)
	}
	defer rows.Close()

	var results []model.ResultRow
	for rows.Next() {
		var (
			r                     model.ResultRow
			rankStatus, icpStatus int
		)
		err := rows.Scan(
			&r.Target,
			&r.Domain,
			&rankStatus,
			&r.Rank.Rank,
			&r.Registration.OrganizationName,
			&r.Registration.OrganizationType,
			&r.Registration.RegistrationID,
			&r.Registration.PageTitle,
			&icpStatus,
		)
		if err != nil {
			return nil, err
		}
		r.Rank.Status = model.Status(rankStatus)
		r.Registration.Status = model.Status(icpStatus)
		results = append(results, r)
	}
	return results, rows.Err()
}
