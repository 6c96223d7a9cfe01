package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v3/mem"
)

func TestCheckMemory(t *testing.T) {
	orig := memoryReader
	defer func() { memoryReader = orig }()

	const mb = 1024 * 1024
	tests := []struct {
		name      string
		available uint64
		err       error
		minFree   int
		want      bool
	}{
		{"内存充足", 2048 * mb, nil, 300, true},
		{"内存不足", 100 * mb, nil, 300, false},
		{"不检查", 10 * mb, nil, 0, true},
		{"读取失败按充足处理", 0, errors.New("no /proc"), 300, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memoryReader = func() (*mem.VirtualMemoryStat, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &mem.VirtualMemoryStat{Total: 8192 * mb, Available: tt.available}, nil
			}
			if got := CheckMemory(context.Background(), tt.minFree); got != tt.want {
				t.Errorf("CheckMemory() = %v, want %v", got, tt.want)
			}
		})
	}
}
