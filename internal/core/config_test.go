package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// 切换到空目录,避免读到仓库中的配置文件
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := models.DefaultScrapeConfig()
	if diff := cmp.Diff(want, cfg.Scrape); diff != "" {
		t.Errorf("默认采集参数不匹配 (-want +got):\n%s", diff)
	}
	if cfg.Browser.WindowWidth != 1920 || !cfg.Browser.Headless || !cfg.Browser.Stealth {
		t.Errorf("默认浏览器参数错误: %+v", cfg.Browser)
	}
	if cfg.Output.Dir != "output" || cfg.Output.Report != "run_report.json" || !cfg.Output.PrintTable {
		t.Errorf("默认输出参数错误: %+v", cfg.Output)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("默认配置应通过验证: %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
site:
  list_url: https://example.org/projects
scrape:
  max_records: 10
  promoter_probes: ["Company Name"]
  timing:
    settle_delay: 1500ms
    record_interval: 5s
browser:
  headless: false
  extra_headers:
    X-Trace: abc
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"列表页", cfg.Scrape.ListURL, "https://example.org/projects"},
		{"采集数量", cfg.Scrape.MaxRecords, 10},
		{"探测标签", cfg.Scrape.PromoterProbes, []string{"Company Name"}},
		{"稳定等待", cfg.Scrape.Timing.SettleDelay, 1500 * time.Millisecond},
		{"记录间隔", cfg.Scrape.Timing.RecordInterval, 5 * time.Second},
		{"未设置的等待保持默认", cfg.Scrape.Timing.ReadyTimeout, 20 * time.Second},
		{"有头模式", cfg.Browser.Headless, false},
		{"额外请求头", cfg.Browser.ExtraHeaders, map[string]string{"x-trace": "abc"}},
		{"日志级别", cfg.LogConfig().Level, "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("不匹配 (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("scrape: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"指定的文件不存在", filepath.Join(dir, "missing.yaml")},
		{"YAML格式错误", bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			var cfgErr *models.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("LoadConfig() error = %v, want ConfigError", err)
			}
		})
	}
}

func TestMergeCLIFlags(t *testing.T) {
	cfg := &Config{
		Scrape:  models.DefaultScrapeConfig(),
		Browser: models.DefaultBrowserConfig(),
		Output:  OutputConfig{Dir: "output"},
		Logging: LoggingConfig{Level: "info"},
	}
	headless := false
	cfg.MergeCLIFlags(CLIOverrides{
		MaxRecords: 3,
		Headless:   &headless,
		ListURL:    "https://example.org/list",
		LogLevel:   "debug",
	})

	if cfg.Scrape.MaxRecords != 3 || cfg.Browser.Headless || cfg.Scrape.ListURL != "https://example.org/list" {
		t.Errorf("命令行参数未生效: %+v %+v", cfg.Scrape, cfg.Browser)
	}
	if cfg.Output.Dir != "output" {
		t.Errorf("未指定的参数不应覆盖配置: %q", cfg.Output.Dir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}

	cfg.MergeCLIFlags(CLIOverrides{})
	if cfg.Scrape.MaxRecords != 3 || cfg.Browser.Headless {
		t.Error("空参数不应修改配置")
	}
}
