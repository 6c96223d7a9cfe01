package models

import (
	"encoding/json"
	"time"
)

// StopReason 运行结束的原因
type StopReason string

const (
	StopCompleted    StopReason = "completed"     // 达到目标数量
	StopEndOfData    StopReason = "end_of_data"   // 列表入口少于预期
	StopNoEntries    StopReason = "no_entries"    // 列表页没有任何入口
	StopBackNavFail  StopReason = "back_nav_fail" // 无法返回列表页
	StopCancelled    StopReason = "cancelled"     // 上下文被取消
	StopStartFailure StopReason = "start_failure" // 列表页加载失败
)

// RecordFailure 单条记录的失败信息
type RecordFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// RunStats 运行统计
type RunStats struct {
	Discovered int     `json:"discovered"` // 列表页发现的入口数
	Target     int     `json:"target"`     // 计划采集数量
	Scraped    int     `json:"scraped"`    // 成功采集数量
	Failed     int     `json:"failed"`     // 失败数量
	Duration   float64 `json:"duration"`   // 总耗时(秒)
}

// RunResult 一次运行的结果,记录按序号排列
type RunResult struct {
	RunID      string          `json:"run_id"`
	ListURL    string          `json:"list_url"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	StopReason StopReason      `json:"stop_reason"`
	Stats      RunStats        `json:"stats"`
	Records    []*Record       `json:"records"`
	Failures   []RecordFailure `json:"failures"`
	Config     ScrapeConfig    `json:"config"`
}

// NewRunResult 创建运行结果
func NewRunResult(cfg ScrapeConfig, start time.Time) *RunResult {
	return &RunResult{
		RunID:     generateID(),
		ListURL:   cfg.ListURL,
		StartTime: start,
		Records:   make([]*Record, 0, cfg.MaxRecords),
		Failures:  make([]RecordFailure, 0),
		Config:    cfg,
	}
}

// Finish 记录结束时间和原因
func (r *RunResult) Finish(reason StopReason, end time.Time) {
	r.StopReason = reason
	r.EndTime = end
	r.Stats.Scraped = len(r.Records)
	r.Stats.Failed = len(r.Failures)
	r.Stats.Duration = end.Sub(r.StartTime).Seconds()
}

// ToJSON 序列化为JSON
func (r *RunResult) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
