package model

import "strconv"

// Status 表示一次远程查询的结果状态
type Status int

const (
	StatusOK        Status = iota // 查询成功
	StatusEmpty                   // 反查接口返回 null
	StatusPageError               // 页面中未找到权重
	StatusConnError               // 网络、超时、非2xx、响应体无法解析
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "Ok"
	case StatusEmpty:
		return "Empty"
	case StatusPageError:
		return "PageError"
	case StatusConnError:
		return "ConnError"
	}
	return "Unknown"
}

// NoRank 权重查询失败时的占位值
const NoRank = -1

// ReverseResolution IP反查域名结果
type ReverseResolution struct {
	Status   Status
	SourceIP string
	Domains  []string // 主域名，已去除IP与重复项，保持首次出现顺序
}

// RankResult 百度权重查询结果
type RankResult struct {
	Status Status
	Rank   int // 0-10，失败时为 NoRank
}

// RegistrationRecord ICP备案查询结果，各字段缺失时为空字符串
type RegistrationRecord struct {
	Status           Status
	OrganizationName string // 单位名称
	OrganizationType string // 单位性质
	RegistrationID   string // 备案编号
	PageTitle        string // 网站标题
}

// ResultRow 输出到控制台与CSV的一行结果
type ResultRow struct {
	Target       string
	Domain       string
	Rank         RankResult
	Registration RegistrationRecord
}

// RankCell 返回权重列的展示值：数字或错误标记
func (r ResultRow) RankCell() string {
	switch r.Rank.Status {
	case StatusOK:
		return strconv.Itoa(r.Rank.Rank)
	case StatusConnError:
		return StatusConnError.String()
	case StatusPageError:
		return StatusPageError.String()
	}
	return ""
}

// Record 按固定列数生成CSV记录，备案查询失败时对应列留空
func (r ResultRow) Record(withICP bool) []string {
	record := []string{r.Target, r.Domain, r.RankCell()}
	if withICP {
		record = append(record,
			r.Registration.OrganizationName,
			r.Registration.OrganizationType,
			r.Registration.RegistrationID,
			r.Registration.PageTitle,
		)
	}
	return record
}
