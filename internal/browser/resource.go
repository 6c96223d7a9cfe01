package browser

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryStatus 系统内存概况
type MemoryStatus struct {
	TotalMB     uint64
	AvailableMB uint64
	UsedPercent float64
}

// memoryReader 便于测试替换
var memoryReader = func() (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemory()
}

// ReadMemory 读取系统内存
func ReadMemory() (MemoryStatus, error) {
	vm, err := memoryReader()
	if err != nil {
		return MemoryStatus{}, err
	}
	return MemoryStatus{
		TotalMB:     vm.Total / 1024 / 1024,
		AvailableMB: vm.Available / 1024 / 1024,
		UsedPercent: vm.UsedPercent,
	}, nil
}

// CheckMemory 启动 Chrome 前检查可用内存
// 内存不足只记录警告,返回 false;读取失败时按充足处理
func CheckMemory(ctx context.Context, minFreeMB int) bool {
	logger := zerolog.Ctx(ctx)

	status, err := ReadMemory()
	if err != nil {
		logger.Warn().Err(err).Msg("获取系统内存失败,跳过内存检查")
		return true
	}

	logger.Debug().
		Uint64("total_mb", status.TotalMB).
		Uint64("available_mb", status.AvailableMB).
		Float64("used_percent", status.UsedPercent).
		Msg("系统内存")

	if minFreeMB > 0 && status.AvailableMB < uint64(minFreeMB) {
		logger.Warn().
			Uint64("available_mb", status.AvailableMB).
			Int("required_mb", minFreeMB).
			Msg("⚠️ 可用内存不足,浏览器可能运行缓慢或崩溃")
		return false
	}
	return true
}
