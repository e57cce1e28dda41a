package runner

import (
	"context"
	"time"

	"beian/internal/model"
	"beian/internal/util"
)

// Resolver IP反查域名
type Resolver interface {
	Resolve(ctx context.Context, ip string) model.ReverseResolution
}

// Ranker 百度权重查询
type Ranker interface {
	Rank(ctx context.Context, domain string) model.RankResult
}

// Registrar ICP备案查询
type Registrar interface {
	Lookup(ctx context.Context, domain string) model.RegistrationRecord
}

// Sink 接收每个目标的结果
type Sink interface {
	Emit(rows []model.ResultRow) error
	Progress(current, total int)
}

// Pipeline 顺序执行 反查 -> 权重 -> 备案，每次远程调用后固定等待 delay
type Pipeline struct {
	resolver  Resolver
	ranker    Ranker
	registrar Registrar // nil 表示不查询备案
	delay     time.Duration
	minRank   int

	sleep func(ctx context.Context, d time.Duration) error
}

func NewPipeline(resolver Resolver, ranker Ranker, registrar Registrar, delay time.Duration, minRank int) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		ranker:    ranker,
		registrar: registrar,
		delay:     delay,
		minRank:   minRank,
		sleep:     sleepContext,
	}
}

// Run 依次处理所有目标，仅在 ctx 取消或 sink 出错时提前返回
func (p *Pipeline) Run(ctx context.Context, targets []string, sink Sink) (int, error) {
	emitted := 0
	for i, target := range targets {
		rows, err := p.ProcessTarget(ctx, target)
		if err != nil {
			return emitted, err
		}
		if len(rows) == 0 {
			sink.Progress(i+1, len(targets))
			continue
		}
		if err := sink.Emit(rows); err != nil {
			return emitted, err
		}
		emitted += len(rows)
	}
	return emitted, nil
}

// ProcessTarget 处理单个目标，返回的错误只可能来自 ctx
func (p *Pipeline) ProcessTarget(ctx context.Context, target string) ([]model.ResultRow, error) {
	domains := []string{target}
	if util.IsIPv4(target) {
		resolution := p.resolver.Resolve(ctx, target)
		if err := p.sleep(ctx, p.delay); err != nil {
			return nil, err
		}
		domains = resolution.Domains
	}

	var rows []model.ResultRow
	for _, domain := range domains {
		rank := p.ranker.Rank(ctx, domain)
		if err := p.sleep(ctx, p.delay); err != nil {
			return nil, err
		}
		// 权重低于阈值的域名不输出
		if rank.Status == model.StatusOK && rank.Rank < p.minRank {
			continue
		}
		rows = append(rows, model.ResultRow{Target: target, Domain: domain, Rank: rank})
	}

	if p.registrar != nil {
		for i := range rows {
			reg := p.registrar.Lookup(ctx, rows[i].Domain)
			if err := p.sleep(ctx, p.delay); err != nil {
				return nil, err
			}
			if reg.Status == model.StatusOK {
				rows[i].Registration = reg
			} else {
				rows[i].Registration = model.RegistrationRecord{Status: reg.Status}
			}
		}
	}
	return rows, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
