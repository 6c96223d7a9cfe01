package models

import (
	"fmt"
	"time"
)

// DefaultListURL RERA Odisha 项目列表页
const DefaultListURL = "https://rera.odisha.gov.in/projects/project-list"

// Timing 各阶段等待时间
type Timing struct {
	ReadyTimeout         time.Duration `mapstructure:"ready_timeout" json:"ready_timeout"`                   // 等待 document.readyState 的上限 (默认:20s)
	ReadyPollInterval    time.Duration `mapstructure:"ready_poll_interval" json:"ready_poll_interval"`       // readyState 轮询间隔 (默认:500ms)
	SettleDelay          time.Duration `mapstructure:"settle_delay" json:"settle_delay"`                     // 就绪后固定等待 (默认:3s)
	ExtractDelay         time.Duration `mapstructure:"extract_delay" json:"extract_delay"`                   // 每次字段提取前等待 (默认:500ms)
	PreClickDelay        time.Duration `mapstructure:"pre_click_delay" json:"pre_click_delay"`               // 滚动到元素后、点击前等待 (默认:1s)
	DetailProbeTimeout   time.Duration `mapstructure:"detail_probe_timeout" json:"detail_probe_timeout"`     // 详情容器探测上限 (默认:10s)
	DetailProbeInterval  time.Duration `mapstructure:"detail_probe_interval" json:"detail_probe_interval"`   // 详情容器探测间隔 (默认:500ms)
	PostDetailDelay      time.Duration `mapstructure:"post_detail_delay" json:"post_detail_delay"`           // 进入详情后等待 (默认:2s)
	PromoterTabDelay     time.Duration `mapstructure:"promoter_tab_delay" json:"promoter_tab_delay"`         // 查找开发商标签前等待 (默认:2s)
	PromoterPollAttempts int           `mapstructure:"promoter_poll_attempts" json:"promoter_poll_attempts"` // 开发商内容探测次数 (默认:8)
	PromoterPollInterval time.Duration `mapstructure:"promoter_poll_interval" json:"promoter_poll_interval"` // 开发商内容探测间隔 (默认:1s)
	RecordInterval       time.Duration `mapstructure:"record_interval" json:"record_interval"`               // 返回列表后、处理下一个项目前等待 (默认:2s)
	RecordSpacing        time.Duration `mapstructure:"record_spacing" json:"record_spacing"`                 // 相邻两个项目开始的最小间隔,0 表示不限制 (默认:0)
}

// DefaultTiming 默认等待时间
func DefaultTiming() Timing {
	return Timing{
		ReadyTimeout:         20 * time.Second,
		ReadyPollInterval:    500 * time.Millisecond,
		SettleDelay:          3 * time.Second,
		ExtractDelay:         500 * time.Millisecond,
		PreClickDelay:        time.Second,
		DetailProbeTimeout:   10 * time.Second,
		DetailProbeInterval:  500 * time.Millisecond,
		PostDetailDelay:      2 * time.Second,
		PromoterTabDelay:     2 * time.Second,
		PromoterPollAttempts: 8,
		PromoterPollInterval: time.Second,
		RecordInterval:       2 * time.Second,
	}
}

// Validate 验证等待时间
func (t *Timing) Validate() error {
	durations := map[string]time.Duration{
		"ready_timeout":          t.ReadyTimeout,
		"ready_poll_interval":    t.ReadyPollInterval,
		"settle_delay":           t.SettleDelay,
		"extract_delay":          t.ExtractDelay,
		"pre_click_delay":        t.PreClickDelay,
		"detail_probe_timeout":   t.DetailProbeTimeout,
		"detail_probe_interval":  t.DetailProbeInterval,
		"post_detail_delay":      t.PostDetailDelay,
		"promoter_tab_delay":     t.PromoterTabDelay,
		"promoter_poll_interval": t.PromoterPollInterval,
		"record_interval":        t.RecordInterval,
		"record_spacing":         t.RecordSpacing,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s 不能为负数: %s", name, d)
		}
	}
	if t.ReadyPollInterval == 0 || t.DetailProbeInterval == 0 {
		return fmt.Errorf("轮询间隔必须大于0")
	}
	if t.PromoterPollAttempts < 0 || t.PromoterPollAttempts > 60 {
		return fmt.Errorf("开发商内容探测次数必须在0-60之间,当前值: %d", t.PromoterPollAttempts)
	}
	return nil
}

// ScrapeConfig 单次采集运行的参数
type ScrapeConfig struct {
	ListURL        string   `mapstructure:"list_url" json:"list_url"`               // 列表页地址
	MaxRecords     int      `mapstructure:"max_records" json:"max_records"`         // 最多采集的项目数 (默认:6)
	MaxBackSteps   int      `mapstructure:"max_back_steps" json:"max_back_steps"`   // 从开发商标签返回时允许的最大后退步数 (默认:2)
	PromoterProbes []string `mapstructure:"promoter_probes" json:"promoter_probes"` // 开发商内容探测标签
	Timing         Timing   `mapstructure:"timing" json:"timing"`
}

// DefaultScrapeConfig 默认采集参数
func DefaultScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		ListURL:        DefaultListURL,
		MaxRecords:     6,
		MaxBackSteps:   2,
		PromoterProbes: append([]string{}, DefaultPromoterProbes...),
		Timing:         DefaultTiming(),
	}
}

// Validate 验证配置
func (c *ScrapeConfig) Validate() error {
	if err := ValidateURL(c.ListURL); err != nil {
		return fmt.Errorf("列表页地址无效: %w", err)
	}
	if c.MaxRecords < 1 || c.MaxRecords > 1000 {
		return fmt.Errorf("采集数量必须在1-1000之间,当前值: %d", c.MaxRecords)
	}
	if c.MaxBackSteps < 1 || c.MaxBackSteps > 5 {
		return fmt.Errorf("最大后退步数必须在1-5之间,当前值: %d", c.MaxBackSteps)
	}
	return c.Timing.Validate()
}

// BrowserConfig 浏览器启动参数
type BrowserConfig struct {
	Headless        bool              `mapstructure:"headless" json:"headless"`                     // 无头模式 (默认:true)
	Stealth         bool              `mapstructure:"stealth" json:"stealth"`                       // 注入反检测脚本 (默认:true)
	Bin             string            `mapstructure:"bin" json:"bin,omitempty"`                     // 浏览器可执行文件路径,为空时自动下载
	UserAgent       string            `mapstructure:"user_agent" json:"user_agent"`                 // 自定义 User-Agent
	WindowWidth     int               `mapstructure:"window_width" json:"window_width"`             // 窗口宽度 (默认:1920)
	WindowHeight    int               `mapstructure:"window_height" json:"window_height"`           // 窗口高度 (默认:1080)
	ExtraHeaders    map[string]string `mapstructure:"extra_headers" json:"-"`                       // 额外请求头(日志中脱敏)
	MinFreeMemoryMB int               `mapstructure:"min_free_memory_mb" json:"min_free_memory_mb"` // 启动前要求的最小可用内存 (默认:300)
}

// DefaultUserAgent 默认 User-Agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultBrowserConfig 默认浏览器参数
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:        true,
		Stealth:         true,
		UserAgent:       DefaultUserAgent,
		WindowWidth:     1920,
		WindowHeight:    1080,
		MinFreeMemoryMB: 300,
	}
}

// Validate 验证浏览器参数
func (c *BrowserConfig) Validate() error {
	if c.WindowWidth < 320 || c.WindowHeight < 240 {
		return fmt.Errorf("窗口尺寸过小: %dx%d", c.WindowWidth, c.WindowHeight)
	}
	if c.MinFreeMemoryMB < 0 {
		return fmt.Errorf("最小可用内存不能为负数")
	}
	return nil
}
