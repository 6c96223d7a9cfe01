package main

import (
	"fmt"
	"os"
	"time"

	"github.com/RecoveryAshes/ReraScraper/internal/models"
)

// ValidateFlags 验证命令行标志
func ValidateFlags(listURL string, maxRecords int) error {
	if err := models.ValidateURL(listURL); err != nil {
		return fmt.Errorf("无效的列表页地址: %w", err)
	}

	if maxRecords < 1 || maxRecords > 1000 {
		return fmt.Errorf("采集数量必须在1-1000之间,当前值: %d", maxRecords)
	}

	return nil
}

// ValidateSnapshotDir 验证离线页面目录
func ValidateSnapshotDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("离线页面目录不能为空,请使用 --snapshot-dir 指定")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("无法访问离线页面目录 [%s]: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s 不是目录", dir)
	}
	return nil
}

// replayTiming 离线回放不需要等待页面渲染
func replayTiming(t models.Timing) models.Timing {
	t.ReadyTimeout = 0
	t.ReadyPollInterval = time.Millisecond
	t.SettleDelay = 0
	t.ExtractDelay = 0
	t.PreClickDelay = 0
	t.DetailProbeTimeout = 0
	t.DetailProbeInterval = time.Millisecond
	t.PostDetailDelay = 0
	t.PromoterTabDelay = 0
	t.PromoterPollInterval = 0
	t.RecordInterval = 0
	t.RecordSpacing = 0
	return t
}
