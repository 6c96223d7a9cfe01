package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEntries 列表页没有找到任何项目入口
	ErrNoEntries = errors.New("列表页未找到项目入口")

	// ErrIndexOutOfRange 请求的序号超出当前入口数量
	ErrIndexOutOfRange = errors.New("项目序号超出范围")

	// ErrClickFailed 普通点击和脚本点击均失败
	ErrClickFailed = errors.New("点击元素失败")

	// ErrUnexpectedView 在错误的视图上执行了状态转换
	ErrUnexpectedView = errors.New("当前视图不允许该操作")

	// ErrStaleElement 元素所在页面已经离开
	ErrStaleElement = errors.New("元素已失效")

	// ErrNoHistory 浏览历史为空,无法后退
	ErrNoHistory = errors.New("没有可后退的历史记录")

	// ErrUnknownField 记录中出现非规范字段
	ErrUnknownField = errors.New("未知字段")
)

// IndexError 序号越界的详细信息
type IndexError struct {
	Index     int
	Available int
}

// Error 实现error接口
func (e *IndexError) Error() string {
	return fmt.Sprintf("项目序号 %d 超出范围 (当前共 %d 个入口)", e.Index, e.Available)
}

// Unwrap 支持errors.Is(err, ErrIndexOutOfRange)
func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// SessionError 浏览器会话无法建立,整个运行终止
type SessionError struct {
	Stage string // launch, connect, page, snapshot
	Cause error
}

// Error 实现error接口
func (e *SessionError) Error() string {
	return fmt.Sprintf("浏览器会话错误 [%s]: %v", e.Stage, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *SessionError) Unwrap() error {
	return e.Cause
}

// ConfigError 配置文件错误
type ConfigError struct {
	// FilePath 配置文件路径
	FilePath string

	// Cause 底层错误 (如viper.ConfigParseError)
	Cause error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
