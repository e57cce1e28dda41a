package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"beian/internal/config"
	"beian/internal/runner"
	"beian/internal/util"
)

var (
	configPath string
	verbose    bool
)

// v 合并命令行参数与 BEIAN_* 环境变量
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:           "beian",
	Short:         "批量IP反查域名、百度权重与ICP备案查询",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		util.InitLogger(verbose)
		util.Logger.SetOutput(cmd.OutOrStdout())
	},
	RunE: runQuery,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "生成默认配置文件",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefaultConfig(configPath); err != nil {
			return err
		}
		util.Logger.Infof("已生成默认配置文件 %s，请按需修改后重新运行", configPath)
		return nil
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringP("target", "t", "", "Target ip/domain")
	flags.StringP("file", "f", "domain.txt", "Target ip/domain file")
	flags.IntP("delay", "s", 3, "Request delay (default 3s)")
	flags.IntP("Timeout", "T", 3, "Request timeout (default 3s)")
	flags.IntP("rank", "r", 0, "Show baiduRank size (default 0)")
	flags.StringP("output", "o", "", "Output csv path (default <Desktop>/批量备案查询结果.csv)")
	flags.Bool("icp", true, "With search icp, --icp=false to disable")
	flags.Bool("insecure", false, "Skip TLS verification for the rank page")
	flags.String("header-mode", config.HeaderLegacy, "CSV header mode: legacy (every run) or once (new file only)")
	flags.String("encoding", config.EncodingGBK, "CSV encoding: gbk or utf-8")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	v.SetEnvPrefix("BEIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(initCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	target := v.GetString("target")
	file := cfg.Input.TargetFile
	if target == "" && file == "" {
		cmd.Usage()
		return nil
	}
	// 只给了单个目标时，默认目标文件不存在不视为错误
	if target != "" && !v.IsSet("file") && !fileExists(file) {
		cfg.Input.TargetFile = ""
	}

	out := cmd.OutOrStdout()
	if cfg.Input.TargetFile != "" && !fileExists(cfg.Input.TargetFile) {
		fmt.Fprintln(out)
		util.Logger.Errorf("Load file [%s] Failed", cfg.Input.TargetFile)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = runner.RunAll(ctx, cfg, target, out)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "\nBye~")
		return nil
	}
	return err
}

// applyOverrides 命令行与环境变量覆盖配置文件中的同名项
func applyOverrides(cfg *config.Config) {
	if v.IsSet("file") {
		cfg.Input.TargetFile = v.GetString("file")
	}
	if v.IsSet("delay") {
		cfg.Query.DelaySeconds = v.GetInt("delay")
	}
	if v.IsSet("Timeout") {
		cfg.Query.TimeoutSeconds = v.GetInt("Timeout")
	}
	if v.IsSet("rank") {
		cfg.Query.MinRank = v.GetInt("rank")
	}
	if v.IsSet("output") {
		cfg.Output.Path = v.GetString("output")
	}
	if v.IsSet("icp") {
		cfg.Query.ICP = v.GetBool("icp")
	}
	if v.IsSet("insecure") {
		cfg.HTTP.InsecureSkipVerify = v.GetBool("insecure")
	}
	if v.IsSet("header-mode") {
		cfg.Output.HeaderMode = v.GetString("header-mode")
	}
	if v.IsSet("encoding") {
		cfg.Output.Encoding = v.GetString("encoding")
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		util.Logger.Errorf("%v", err)
		os.Exit(1)
	}
}
