package runner

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"beian/internal/analysis"
	"beian/internal/config"
	"beian/internal/database"
	"beian/internal/desktop"
	"beian/internal/exporter"
	"beian/internal/loader"
	"beian/internal/model"
	"beian/internal/query"
	"beian/internal/report"
	"beian/internal/util"
)

// Summary 一次批量查询的汇总
type Summary struct {
	Targets      int
	Rows         int
	OutputPath   string
	Distribution []database.RankCount
	SharedHosts  []analysis.IPAnalysisResult
}

// stagingSink 打印结果并暂存到本次运行的内存库
type stagingSink struct {
	printer   *report.Printer
	db        *sql.DB
	tableName string
}

func (s *stagingSink) Emit(rows []model.ResultRow) error {
	s.printer.Rows(rows)
	return database.SaveResults(s.db, s.tableName, rows)
}

func (s *stagingSink) Progress(current, total int) {
	s.printer.Progress(current, total)
}

// RunAll 加载目标、逐个查询并在全部完成后追加写入CSV。
// ctx 被取消时返回 ctx.Err()，不写CSV
func RunAll(ctx context.Context, cfg *config.Config, target string, out io.Writer) (*Summary, error) {
	// 读取并解析目标
	targets, err := loader.LoadTargets(cfg.Input.TargetFile, target)
	if err != nil {
		return nil, err
	}

	util.Logger.Infof("Timeout:   %ds", cfg.Query.TimeoutSeconds)
	util.Logger.Infof("Delay:     %ds", cfg.Query.DelaySeconds)
	util.Logger.Infof("Rank Size: >%d", cfg.Query.MinRank)
	util.Logger.Infof("ICP:       %t", cfg.Query.ICP)
	util.Logger.Infof("ipCount:   %d", len(targets))
	fmt.Fprintln(out)

	// 初始化本次运行的暂存库
	tableName := util.GenerateTableName(util.GenerateTaskID())
	db, err := database.InitDB(database.MemoryDSN, tableName)
	if err != nil {
		return nil, fmt.Errorf("初始化暂存库失败: %w", err)
	}
	defer db.Close()

	printer := report.NewPrinter(out, cfg.Query.ICP)
	printer.Title()

	sink := &stagingSink{printer: printer, db: db, tableName: tableName}
	if _, err := newPipeline(cfg).Run(ctx, targets, sink); err != nil {
		return nil, err
	}
	fmt.Fprintln(out)

	// 导出结果
	outputPath, err := desktop.OutputPath(cfg.Output.Path, cfg.Output.FileName, desktop.Fallback{
		Primary: desktop.NewResolver(),
		Dir:     cfg.Output.Dir,
	})
	if err != nil {
		return nil, fmt.Errorf("确定输出路径失败: %w", err)
	}

	count, err := exporter.ExportTableToCSV(db, tableName, outputPath, exporter.Options{
		ICP:        cfg.Query.ICP,
		Encoding:   cfg.Output.Encoding,
		HeaderMode: cfg.Output.HeaderMode,
	})
	if err != nil {
		return nil, fmt.Errorf("导出CSV失败: %w", err)
	}

	dist, err := database.RankDistribution(db, tableName)
	if err != nil {
		return nil, err
	}

	shared, err := analysis.AnalyzeSharedHosting(db, tableName, analysis.SharedHostThreshold)
	if err != nil {
		return nil, err
	}

	util.Logger.Infof("结果已追加至 %s，共 %d 条", outputPath, count)
	if len(dist) > 0 {
		util.Logger.Infof("权重分布: %s", database.FormatDistribution(dist))
	}
	for _, host := range shared {
		util.Logger.Infof("共享主机: %s 上有 %d 个域名", host.IP, host.DomainCount)
	}

	return &Summary{
		Targets:      len(targets),
		Rows:         count,
		OutputPath:   outputPath,
		Distribution: dist,
		SharedHosts:  shared,
	}, nil
}

// newPipeline 按配置组装三个查询接口，权重页面使用单独的UA与证书策略
func newPipeline(cfg *config.Config) *Pipeline {
	opts := query.Options{
		Timeout:   cfg.Timeout(),
		UserAgent: cfg.HTTP.UserAgent,
		Retries:   cfg.Query.Retries,
		RateLimit: cfg.Query.RateLimit,
	}
	client := query.NewClient(opts)

	rankOpts := opts
	rankOpts.UserAgent = cfg.HTTP.RankUserAgent
	rankOpts.InsecureSkipVerify = cfg.HTTP.InsecureSkipVerify
	if rankOpts.InsecureSkipVerify {
		util.Logger.Warn("已关闭权重页面的证书校验")
	}

	var registrar Registrar
	if cfg.Query.ICP {
		registrar = query.NewRegistrationLookup(client, cfg.Endpoints.ICP)
	}

	return NewPipeline(
		query.NewReverseIPResolver(client, cfg.Endpoints.ReverseIP),
		query.NewRankLookup(query.NewClient(rankOpts), cfg.Endpoints.Rank),
		registrar,
		cfg.Delay(),
		cfg.Query.MinRank,
	)
}
