package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"beian/internal/util"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadTargets 读取目标文件与单个目标，解析为IP或主域名并去重。
// 文件不存在时返回的错误满足 errors.Is(err, os.ErrNotExist)
func LoadTargets(file, target string) ([]string, error) {
	set := make(map[string]struct{})

	if file != "" {
		lines, err := ReadLines(file)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if t := util.ExtractTarget(line); t != "" {
				set[t] = struct{}{}
			}
		}
	}

	if target != "" {
		if t := util.ExtractTarget(target); t != "" {
			set[t] = struct{}{}
		}
	}

	targets := make([]string, 0, len(set))
	for t := range set {
		if util.IsPrivateIP(t) {
			util.Logger.Warnf("内网IP %s 反查结果可能为空", t)
		}
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets, nil
}

// ReadLines 读取文本文件的非空行，跳过 # 注释；非UTF-8文件按GBK解码
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取目标文件失败: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var reader io.Reader = bytes.NewReader(data)
	// 读取一小部分内容来检测编码
	if !looksUTF8(data) {
		reader = transform.NewReader(reader, simplifiedchinese.GBK.NewDecoder())
	}

	var lines []string
	sc := bufio.NewScanner(reader)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("读取目标文件失败: %w", err)
	}
	return lines, nil
}

// looksUTF8 检查前1KB是否为合法UTF-8，截断在末尾的多字节字符不视为错误
func looksUTF8(data []byte) bool {
	if len(data) > 1024 {
		data = data[:1024]
		for i := 0; i < utf8.UTFMax && len(data) > 0; i++ {
			if utf8.Valid(data) {
				return true
			}
			data = data[:len(data)-1]
		}
	}
	return utf8.Valid(data)
}
