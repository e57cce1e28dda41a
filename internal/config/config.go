package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"beian/internal/util"
)

// 请求头模式
const (
	HeaderLegacy = "legacy" // 每次运行都追加表头
	HeaderOnce   = "once"   // 仅在文件新建或为空时写表头
)

// 输出编码
const (
	EncodingGBK  = "gbk"
	EncodingUTF8 = "utf-8"
)

// TargetPlaceholder 接口模板中的目标占位符
const TargetPlaceholder = "{target}"

type Config struct {
	Query struct {
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		DelaySeconds   int     `yaml:"delay_seconds"`
		MinRank        int     `yaml:"min_rank"`
		ICP            bool    `yaml:"icp"`
		Retries        int     `yaml:"retries"`
		RateLimit      float64 `yaml:"rate_limit"`
	} `yaml:"query"`

	Endpoints struct {
		ReverseIP string `yaml:"reverse_ip"`
		Rank      string `yaml:"rank"`
		ICP       string `yaml:"icp"`
	} `yaml:"endpoints"`

	HTTP struct {
		UserAgent          string `yaml:"user_agent"`
		RankUserAgent      string `yaml:"rank_user_agent"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"http"`

	Input struct {
		TargetFile string `yaml:"target_file"`
	} `yaml:"input"`

	Output struct {
		Path       string `yaml:"path"`
		Dir        string `yaml:"dir"`
		FileName   string `yaml:"file_name"`
		Encoding   string `yaml:"encoding"`
		HeaderMode string `yaml:"header_mode"`
	} `yaml:"output"`
}

// Default 返回内置默认配置
func Default() *Config {
	var cfg Config
	cfg.Query.TimeoutSeconds = 3
	cfg.Query.DelaySeconds = 3
	cfg.Query.MinRank = 0
	cfg.Query.ICP = true

	cfg.Endpoints.ReverseIP = "http://api.webscan.cc/?action=query&ip={target}"
	cfg.Endpoints.Rank = "https://www.aizhan.com/cha/{target}/"
	cfg.Endpoints.ICP = "https://api.vvhan.com/api/icp?url={target}"

	cfg.HTTP.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/94.0.4606.71 Safari/537.36"
	cfg.HTTP.RankUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.13; rv:61.0) Gecko/20100101 Firefox/61.0"

	cfg.Input.TargetFile = "domain.txt"

	cfg.Output.Dir = "."
	cfg.Output.FileName = util.DefaultCSVName
	cfg.Output.Encoding = EncodingGBK
	cfg.Output.HeaderMode = HeaderLegacy
	return &cfg
}

// LoadConfig 读取YAML配置，文件不存在时使用默认配置
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.Query.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds 必须大于0: %d", c.Query.TimeoutSeconds)
	}
	if c.Query.DelaySeconds < 0 {
		return fmt.Errorf("delay_seconds 不能为负数: %d", c.Query.DelaySeconds)
	}
	if c.Query.Retries < 0 {
		return fmt.Errorf("retries 不能为负数: %d", c.Query.Retries)
	}
	if c.Query.RateLimit < 0 {
		return fmt.Errorf("rate_limit 不能为负数: %v", c.Query.RateLimit)
	}

	for name, tpl := range map[string]string{
		"reverse_ip": c.Endpoints.ReverseIP,
		"rank":       c.Endpoints.Rank,
		"icp":        c.Endpoints.ICP,
	} {
		if !strings.Contains(tpl, TargetPlaceholder) {
			return fmt.Errorf("接口 %s 缺少 %s 占位符: %q", name, TargetPlaceholder, tpl)
		}
	}

	c.Output.Encoding = strings.ToLower(strings.TrimSpace(c.Output.Encoding))
	switch c.Output.Encoding {
	case EncodingGBK, EncodingUTF8:
	case "utf8":
		c.Output.Encoding = EncodingUTF8
	case "":
		c.Output.Encoding = EncodingGBK
	default:
		return fmt.Errorf("不支持的输出编码: %s", c.Output.Encoding)
	}

	switch c.Output.HeaderMode {
	case HeaderLegacy, HeaderOnce:
	case "":
		c.Output.HeaderMode = HeaderLegacy
	default:
		return fmt.Errorf("不支持的表头模式: %s", c.Output.HeaderMode)
	}
	return nil
}

// Timeout 单次请求超时
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Query.TimeoutSeconds) * time.Second
}

// Delay 每次请求后的固定间隔
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Query.DelaySeconds) * time.Second
}

// WriteDefaultConfig 生成带注释的默认配置文件，已存在时不覆盖
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("配置文件 %s 已存在", path)
	}

	defaultConfigContent := `# config.yaml

# 查询参数设置
query:
  timeout_seconds: 3    # 单次请求超时（秒）
  delay_seconds: 3      # 每次请求后的间隔时间（秒），防止过于高频导致查询失败
  min_rank: 0           # 仅输出百度权重大于等于该值的域名
  icp: true             # 是否查询ICP备案
  retries: 0            # 触发频率限制时的重试次数，0 表示不重试
  rate_limit: 0         # 每秒最大请求数，0 表示不限制

# 接口地址，{target} 会被替换为IP或域名
endpoints:
  reverse_ip: "http://api.webscan.cc/?action=query&ip={target}"
  rank: "https://www.aizhan.com/cha/{target}/"
  icp: "https://api.vvhan.com/api/icp?url={target}"

http:
  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/94.0.4606.71 Safari/537.36"
  rank_user_agent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.13; rv:61.0) Gecko/20100101 Firefox/61.0"
  insecure_skip_verify: false   # 仅对权重页面生效，跳过证书校验

# 输入目标配置
input:
  target_file: "domain.txt"

# 结果输出（path 为空时写入桌面，桌面不存在则写入 dir）
output:
  path: ""
  dir: "."
  file_name: "批量备案查询结果.csv"
  encoding: "gbk"         # gbk 或 utf-8
  header_mode: "legacy"   # legacy：每次运行追加表头；once：仅新文件写表头
`

	if err := os.WriteFile(path, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("写入默认配置文件失败: %w", err)
	}
	return nil
}
