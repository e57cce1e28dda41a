package exporter

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"beian/internal/config"
	"beian/internal/database"
	"beian/internal/model"
)

// Options CSV 输出方式
type Options struct {
	ICP        bool
	Encoding   string // config.EncodingGBK 或 config.EncodingUTF8
	HeaderMode string // config.HeaderLegacy 或 config.HeaderOnce
}

// Header 返回与结果行列数一致的表头
func Header(icp bool) []string {
	header := []string{"ip", "反查域名", "百度权重"}
	if icp {
		header = append(header, "单位名称", "单位性质", "备案编号", "网站标题")
	}
	return header
}

// ExportTableToCSV 将暂存表中的结果追加到 outputPath
func ExportTableToCSV(db *sql.DB, tableName, outputPath string, opts Options) (int, error) {
	rows, err := database.LoadResults(db, tableName)
	if err != nil {
		return 0, err
	}
	if err := AppendCSV(outputPath, rows, opts); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// AppendCSV 以追加方式写入表头与结果行
func AppendCSV(outputPath string, rows []model.ResultRow, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	withHeader := true
	if opts.HeaderMode == config.HeaderOnce {
		if info, err := os.Stat(outputPath); err == nil && info.Size() > 0 {
			withHeader = false
		}
	}

	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("打开输出文件失败: %w", err)
	}
	defer file.Close()

	if opts.Encoding == config.EncodingUTF8 {
		return WriteCSV(file, rows, opts.ICP, withHeader)
	}

	// GBK 无法表示的字符以替换符写出，不中断导出
	gbk := transform.NewWriter(file, encoding.ReplaceUnsupported(simplifiedchinese.GBK.NewEncoder()))
	if err := WriteCSV(gbk, rows, opts.ICP, withHeader); err != nil {
		return err
	}
	if err := gbk.Close(); err != nil {
		return fmt.Errorf("GBK编码失败: %w", err)
	}
	return nil
}

// WriteCSV 写出 CSV 记录，行尾为 \r\n
func WriteCSV(w io.Writer, rows []model.ResultRow, icp, withHeader bool) error {
	writer := csv.NewWriter(w)
	writer.UseCRLF = true

	if withHeader {
		if err := writer.Write(Header(icp)); err != nil {
			return fmt.Errorf("写入表头失败: %w", err)
		}
	}
	for _, row := range rows {
		if err := writer.Write(row.Record(icp)); err != nil {
			return fmt.Errorf("写入结果失败: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
