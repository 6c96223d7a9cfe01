package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/ReraScraper/internal/models"
	"github.com/RecoveryAshes/ReraScraper/internal/utils"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Site    SiteConfig           `mapstructure:"site"`
	Scrape  models.ScrapeConfig  `mapstructure:"scrape"`
	Browser models.BrowserConfig `mapstructure:"browser"`
	Output  OutputConfig         `mapstructure:"output"`
	Logging LoggingConfig        `mapstructure:"logging"`
}

// SiteConfig 目标站点
type SiteConfig struct {
	Name    string `mapstructure:"name"`
	ListURL string `mapstructure:"list_url"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	ExcelFile  string `mapstructure:"excel_file"` // 为空时按时间生成
	Report     string `mapstructure:"report"`     // 为空时不保存JSON报告
	PrintTable bool   `mapstructure:"print_table"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		// 显式指定的配置文件必须存在
		if _, err := os.Stat(configPath); err != nil {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".rerascraper"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("读取配置文件失败: %w", err)}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{FilePath: v.ConfigFileUsed(), Cause: fmt.Errorf("解析配置文件失败: %w", err)}
	}
	config.Scrape.ListURL = config.Site.ListURL

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("site.name", "RERA Odisha")
	v.SetDefault("site.list_url", models.DefaultListURL)

	scrape := models.DefaultScrapeConfig()
	v.SetDefault("scrape.max_records", scrape.MaxRecords)
	v.SetDefault("scrape.max_back_steps", scrape.MaxBackSteps)
	v.SetDefault("scrape.promoter_probes", scrape.PromoterProbes)

	t := scrape.Timing
	v.SetDefault("scrape.timing.ready_timeout", t.ReadyTimeout)
	v.SetDefault("scrape.timing.ready_poll_interval", t.ReadyPollInterval)
	v.SetDefault("scrape.timing.settle_delay", t.SettleDelay)
	v.SetDefault("scrape.timing.extract_delay", t.ExtractDelay)
	v.SetDefault("scrape.timing.pre_click_delay", t.PreClickDelay)
	v.SetDefault("scrape.timing.detail_probe_timeout", t.DetailProbeTimeout)
	v.SetDefault("scrape.timing.detail_probe_interval", t.DetailProbeInterval)
	v.SetDefault("scrape.timing.post_detail_delay", t.PostDetailDelay)
	v.SetDefault("scrape.timing.promoter_tab_delay", t.PromoterTabDelay)
	v.SetDefault("scrape.timing.promoter_poll_attempts", t.PromoterPollAttempts)
	v.SetDefault("scrape.timing.promoter_poll_interval", t.PromoterPollInterval)
	v.SetDefault("scrape.timing.record_interval", t.RecordInterval)
	v.SetDefault("scrape.timing.record_spacing", t.RecordSpacing)

	b := models.DefaultBrowserConfig()
	v.SetDefault("browser.headless", b.Headless)
	v.SetDefault("browser.stealth", b.Stealth)
	v.SetDefault("browser.bin", b.Bin)
	v.SetDefault("browser.user_agent", b.UserAgent)
	v.SetDefault("browser.window_width", b.WindowWidth)
	v.SetDefault("browser.window_height", b.WindowHeight)
	v.SetDefault("browser.min_free_memory_mb", b.MinFreeMemoryMB)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.excel_file", "")
	v.SetDefault("output.report", utils.ReportFileName)
	v.SetDefault("output.print_table", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)
}

// CLIOverrides 命令行参数,零值表示未指定
type CLIOverrides struct {
	MaxRecords int
	Headless   *bool
	ListURL    string
	OutputDir  string
	LogLevel   string
}

// MergeCLIFlags 合并命令行参数到配置,命令行优先
func (c *Config) MergeCLIFlags(o CLIOverrides) {
	if o.MaxRecords > 0 {
		c.Scrape.MaxRecords = o.MaxRecords
	}
	if o.Headless != nil {
		c.Browser.Headless = *o.Headless
	}
	if o.ListURL != "" {
		c.Site.ListURL = o.ListURL
		c.Scrape.ListURL = o.ListURL
	}
	if o.OutputDir != "" {
		c.Output.Dir = o.OutputDir
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Scrape.Validate(); err != nil {
		return err
	}
	return c.Browser.Validate()
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}
