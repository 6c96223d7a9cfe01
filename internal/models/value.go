package models

import (
	"fmt"
	"strings"
)

// AbsentText 字段缺失时的输出文本
const AbsentText = "N/A"

// ValueKind 提取结果的类型
type ValueKind int

const (
	ValueAbsent    ValueKind = iota // 所有策略都未找到
	ValueText                       // 普通文本
	ValueReference                  // 文档引用(仅有文件ID)
	ValueFailed                     // 提取过程本身出错
)

// String 返回类型名称
func (k ValueKind) String() string {
	switch k {
	case ValueText:
		return "text"
	case ValueReference:
		return "reference"
	case ValueFailed:
		return "failed"
	default:
		return "absent"
	}
}

// ExtractedValue 单个字段的提取结果
// 类型决定含义,文本内容不参与判断
type ExtractedValue struct {
	Kind   ValueKind `json:"kind"`
	Text   string    `json:"text,omitempty"`    // ValueText 的内容
	FileID string    `json:"file_id,omitempty"` // ValueReference 的文件ID
	Err    string    `json:"error,omitempty"`   // ValueFailed 的错误描述
}

// Absent 缺失值
func Absent() ExtractedValue {
	return ExtractedValue{Kind: ValueAbsent}
}

// Text 文本值,空白文本视为缺失
func Text(s string) ExtractedValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return Absent()
	}
	return ExtractedValue{Kind: ValueText, Text: s}
}

// Reference 文档引用值
func Reference(fileID string) ExtractedValue {
	return ExtractedValue{Kind: ValueReference, FileID: strings.TrimSpace(fileID)}
}

// Failed 提取失败值
func Failed(err error) ExtractedValue {
	return ExtractedValue{Kind: ValueFailed, Err: err.Error()}
}

// Usable 是否为可用值(文本或引用)
func (v ExtractedValue) Usable() bool {
	return v.Kind == ValueText || v.Kind == ValueReference
}

// String 渲染为输出文本
func (v ExtractedValue) String() string {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueReference:
		return fmt.Sprintf("PDF Document (ID: %s)", v.FileID)
	case ValueFailed:
		return "Error: " + v.Err
	default:
		return AbsentText
	}
}
