package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/RecoveryAshes/ReraScraper/internal/browser"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "检查运行环境",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("==============================================")
		fmt.Println("  ReraScraper 环境检查")
		fmt.Println("==============================================")
		fmt.Println()

		allOK := true

		fmt.Printf("✅ Go版本: %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

		// 浏览器
		switch {
		case appConfig.Browser.Bin != "":
			if _, err := os.Stat(appConfig.Browser.Bin); err == nil {
				fmt.Printf("✅ 浏览器: %s\n", appConfig.Browser.Bin)
			} else {
				fmt.Printf("❌ 配置的浏览器不存在: %s\n", appConfig.Browser.Bin)
				allOK = false
			}
		default:
			if path, found := launcher.LookPath(); found {
				fmt.Printf("✅ 浏览器: %s\n", path)
			} else {
				fmt.Println("⚠️  未找到本地Chrome,首次运行时会自动下载")
			}
		}

		// 内存
		if status, err := browser.ReadMemory(); err == nil {
			fmt.Printf("✅ 可用内存: %d MB / %d MB\n", status.AvailableMB, status.TotalMB)
			if !browser.CheckMemory(context.Background(), appConfig.Browser.MinFreeMemoryMB) {
				fmt.Printf("❌ 可用内存低于 %d MB\n", appConfig.Browser.MinFreeMemoryMB)
				allOK = false
			}
		} else {
			fmt.Printf("⚠️  无法读取内存信息: %v\n", err)
		}

		// 输出目录
		if err := checkWritable(appConfig.Output.Dir); err == nil {
			fmt.Printf("✅ 输出目录可写: %s\n", appConfig.Output.Dir)
		} else {
			fmt.Printf("❌ 输出目录不可写: %v\n", err)
			allOK = false
		}

		// 配置
		if err := appConfig.Validate(); err == nil {
			fmt.Println("✅ 配置有效")
		} else {
			fmt.Printf("❌ 配置无效: %v\n", err)
			allOK = false
		}

		fmt.Println()
		fmt.Println("==============================================")
		if !allOK {
			return fmt.Errorf("环境检查失败,请解决上述问题")
		}
		fmt.Println("✅ 环境检查通过!")
		return nil
	},
}

// checkWritable 创建目录并写入临时文件
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
