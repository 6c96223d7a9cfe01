package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RecoveryAshes/ReraScraper/internal/browser"
	"github.com/RecoveryAshes/ReraScraper/internal/core"
	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/RecoveryAshes/ReraScraper/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 请求头参数
	headers        []string
	validateConfig bool

	// 采集参数
	listURL    string
	maxRecords int
	headless   bool
	outputDir  string
	excelFile  string

	// 回放参数
	snapshotDir string
)

// appConfig 由 PersistentPreRunE 加载并合并命令行参数
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "rerascraper",
	Short: "RERA Odisha 项目信息采集工具",
	Long: `ReraScraper - RERA Odisha 项目列表采集工具 (Go版本)

驱动真实浏览器打开项目列表页,逐个进入项目详情,提取:
  • RERA注册号、项目名称、项目类型、项目状态
  • 开发商名称、开发商地址、GST号(PDF文档链接记为文档ID)

结果保存为 Excel 文件和 JSON 运行报告。

示例:
  # 采集前6个项目
  rerascraper

  # 采集前10个项目,显示浏览器窗口
  rerascraper -n 10 --headless=false

  # 附加请求头
  rerascraper -H "Accept-Language: en-IN"

  # 使用保存的页面离线调试
  rerascraper replay -s ./snapshots

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		overrides := core.CLIOverrides{LogLevel: logLevel}
		if cmd.Flags().Changed("max-records") {
			overrides.MaxRecords = maxRecords
		}
		if cmd.Flags().Changed("headless") {
			overrides.Headless = &headless
		}
		if cmd.Flags().Changed("url") {
			overrides.ListURL = listURL
		}
		if cmd.Flags().Changed("output") {
			overrides.OutputDir = outputDir
		}
		if verbose && logLevel == "" {
			overrides.LogLevel = "debug"
		}
		config.MergeCLIFlags(overrides)
		if excelFile != "" {
			config.Output.ExcelFile = excelFile
		}

		if err := utils.InitLogger(config.LogConfig()); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}
		if verbose {
			utils.Info("详细模式已启用")
		}

		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		hdrs, err := resolveHeaders(appConfig)
		if err != nil {
			return err
		}

		if validateConfig {
			return printConfigCheck(appConfig, hdrs)
		}

		if err := ValidateFlags(appConfig.Scrape.ListURL, appConfig.Scrape.MaxRecords); err != nil {
			return err
		}
		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("配置无效: %w", err)
		}

		ctx, stop := signalContext()
		defer stop()

		browser.CheckMemory(ctx, appConfig.Browser.MinFreeMemoryMB)

		cfg := appConfig.Browser
		open := func(ctx context.Context) (browser.Browser, error) {
			r, err := browser.LaunchRod(ctx, cfg, hdrs)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
		return runAndReport(ctx, appConfig, open)
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "使用保存的HTML页面离线运行采集流程",
	Long: `从目录加载保存的页面并运行完整的采集流程,用于调试选择器。

目录中的文件路径即页面路径,例如:
  snapshots/projects/project-list.html  ->  /projects/project-list
  snapshots/projects/1.html             ->  /projects/1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ValidateSnapshotDir(snapshotDir); err != nil {
			return err
		}
		if err := ValidateFlags(appConfig.Scrape.ListURL, appConfig.Scrape.MaxRecords); err != nil {
			return err
		}

		snap, err := browser.LoadSnapshotDir(snapshotDir)
		if err != nil {
			return &models.SessionError{Stage: "snapshot", Cause: err}
		}
		utils.Infof("📂 已加载离线页面: %s", snapshotDir)

		appConfig.Scrape.Timing = replayTiming(appConfig.Scrape.Timing)
		utils.Debug("回放模式: 页面等待已关闭")
		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("配置无效: %w", err)
		}

		ctx, stop := signalContext()
		defer stop()

		open := func(context.Context) (browser.Browser, error) { return snap, nil }
		return runAndReport(ctx, appConfig, open)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ReraScraper %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// signalContext Ctrl+C 时取消采集,已采集的记录照常保存
func signalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return utils.WithLogger(ctx, utils.Logger), stop
}

// resolveHeaders 合并配置文件和命令行中的请求头并验证
func resolveHeaders(cfg *core.Config) (http.Header, error) {
	cli, err := models.CliHeaders(headers).Parse()
	if err != nil {
		return nil, fmt.Errorf("解析请求头失败: %w", err)
	}
	merged := models.MergeHeaders(cfg.Browser.ExtraHeaders, cli)
	if err := utils.ValidateHeaders(merged); err != nil {
		return nil, fmt.Errorf("请求头无效: %w", err)
	}
	for _, line := range utils.RedactHeaders(merged) {
		utils.Debugf("请求头 %s", line)
	}
	return merged, nil
}

func printConfigCheck(cfg *core.Config, hdrs http.Header) error {
	utils.Info("🔍 验证配置...")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}
	utils.Info("✅ 配置验证通过!")
	utils.Infof("列表页: %s", cfg.Scrape.ListURL)
	utils.Infof("采集数量: %d", cfg.Scrape.MaxRecords)
	safe := utils.RedactHeaders(hdrs)
	utils.Infof("当前有效的请求头 (%d个):", len(safe))
	for _, line := range safe {
		utils.Infof("  %s", line)
	}
	return nil
}

// runAndReport 执行采集并保存结果
func runAndReport(ctx context.Context, cfg *core.Config, open browser.Opener) error {
	runner := core.NewRunner(cfg.Scrape, open, core.WithProgress(os.Stderr))
	result, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("采集失败: %w", err)
	}

	reporter := utils.NewReporter(cfg.Output.Dir)
	if len(result.Records) > 0 {
		name := cfg.Output.ExcelFile
		if name == "" {
			name = utils.DefaultExcelName(time.Now())
		}
		path, err := reporter.SaveExcel(result.Records, name)
		if err != nil {
			utils.Error(err, "❌ 保存Excel失败")
			return fmt.Errorf("保存Excel失败: %w", err)
		}
		utils.Infof("💾 数据已保存: %s", path)
	} else {
		utils.Warn("没有采集到任何项目,不生成Excel文件")
	}

	if cfg.Output.Report != "" {
		// 运行报告写入失败不影响已保存的数据
		if path, err := reporter.SaveJSON(result, cfg.Output.Report); err != nil {
			utils.Warnf("保存运行报告失败: %v", err)
		} else {
			utils.Infof("📄 运行报告: %s", path)
		}
	}

	for _, f := range result.Failures {
		utils.Errorf("项目 %d 采集失败: %s", f.Index, f.Error)
	}

	if cfg.Output.PrintTable && len(result.Records) > 0 {
		utils.PrintRecords(os.Stdout, result.Records)
	}

	fmt.Println("\n==================================================")
	fmt.Println("📊 采集统计")
	fmt.Println("==================================================")
	fmt.Printf("✅ 成功采集: %d/%d\n", result.Stats.Scraped, result.Stats.Target)
	fmt.Printf("🔎 列表入口: %d\n", result.Stats.Discovered)
	fmt.Printf("❌ 失败项目: %d\n", result.Stats.Failed)
	fmt.Printf("🛑 结束原因: %s\n", result.StopReason)
	fmt.Printf("⏱️  总耗时: %.2f秒\n", result.Stats.Duration)
	fmt.Println("==================================================")

	utils.Infof("✨ 采集任务完成! 共 %d/%d 个项目", result.Stats.Scraped, result.Stats.Target)
	return nil
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 采集参数(回放时同样适用)
	rootCmd.PersistentFlags().StringVarP(&listURL, "url", "u", models.DefaultListURL, "项目列表页地址")
	rootCmd.PersistentFlags().IntVarP(&maxRecords, "max-records", "n", 6, "最多采集的项目数 (1-1000)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "output", "输出目录")
	rootCmd.PersistentFlags().StringVar(&excelFile, "excel", "", "Excel文件名,默认按时间生成")

	// 浏览器参数
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().StringSliceVarP(&headers, "header", "H", []string{}, "附加请求头,格式: 'Name: Value',可多次指定")
	rootCmd.Flags().BoolVar(&validateConfig, "validate-config", false, "验证配置并显示生效的请求头")

	replayCmd.Flags().StringVarP(&snapshotDir, "snapshot-dir", "s", "", "保存的HTML页面目录 (必需)")

	rootCmd.AddCommand(replayCmd, versionCmd, doctorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
