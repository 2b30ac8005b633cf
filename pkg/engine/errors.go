package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration 参数校验失败，运行不会开始
	ErrInvalidConfiguration = errors.New("配置无效")

	// ErrRunActive 已有运行在进行中
	ErrRunActive = errors.New("已有任务正在运行")
)

// ErrorKind 单个文件失败的类别
type ErrorKind string

const (
	ErrorKindIO          ErrorKind = "io_error"
	ErrorKindCrossDevice ErrorKind = "cross_device_fallback_failure"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func invalidErr(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidConfiguration, msg, err)
}
