package mover

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/moyu-x/framemover/pkg/logger"
)

const (
	TempPrefix = ".framemover-"
	TempSuffix = ".part"

	copyBufferSize = 64 * 1024
)

// Stage 跨卷回退流程中出错的步骤
type Stage string

const (
	StageCopy     Stage = "copy"
	StageVerify   Stage = "verify"
	StageDelete   Stage = "delete"
	StageFinalize Stage = "finalize"
)

// FallbackError 跨卷“复制+删除”流程部分失败。
// copy/verify 失败时源文件保持不变；delete 失败时两份副本都保留；
// finalize 失败时临时文件保存着唯一的副本，路径见 TempPath。
type FallbackError struct {
	Stage     Stage
	Source    string
	Dest      string
	TempPath  string
	Finalized bool // 目标文件是否已经落地
	Err       error
}

func (e *FallbackError) Error() string {
	msg := fmt.Sprintf("跨卷移动在 %s 步骤失败 (%s -> %s)", e.Stage, e.Source, e.Dest)
	if e.TempPath != "" {
		msg += fmt.Sprintf("，临时文件保留在 %s", e.TempPath)
	}
	return msg + ": " + e.Err.Error()
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}

// IsCrossDevice 判断重命名失败是否因为跨设备
func IsCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// IsTempFile 是否为回退流程遗留的临时文件
func IsTempFile(name string) bool {
	base := filepath.Base(name)
	return len(base) > len(TempPrefix)+len(TempSuffix) &&
		strings.HasPrefix(base, TempPrefix) &&
		strings.HasSuffix(base, TempSuffix)
}

type Mover struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Mover {
	return &Mover{fs: fs}
}

// Move 将 src 移动到 dst，必要时创建父目录。
// 优先使用原子 rename；跨设备时回退为复制到目标目录的临时文件、校验、删除源文件、再重命名为 dst。
func (m *Mover) Move(src, dst string) error {
	if err := m.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("创建目标目录失败: %w", err)
	}

	err := m.fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !IsCrossDevice(err) {
		return fmt.Errorf("移动文件失败: %w", err)
	}

	logger.Get().Debug().
		Err(err).
		Str("source", src).
		Str("destination", dst).
		Msg("直接重命名失败，尝试复制后删除")

	return m.copyAndDelete(src, dst)
}

func (m *Mover) copyAndDelete(src, dst string) error {
	fail := func(stage Stage, tmp string, err error) *FallbackError {
		return &FallbackError{Stage: stage, Source: src, Dest: dst, TempPath: tmp, Err: err}
	}

	srcInfo, err := m.fs.Stat(src)
	if err != nil {
		return fail(StageCopy, "", fmt.Errorf("读取源文件信息失败: %w", err))
	}

	tmp := filepath.Join(filepath.Dir(dst), TempPrefix+uuid.NewString()+TempSuffix)

	if err := m.copyFile(src, tmp, srcInfo); err != nil {
		m.removeTemp(tmp)
		return fail(StageCopy, "", err)
	}

	tmpInfo, err := m.fs.Stat(tmp)
	if err != nil {
		m.removeTemp(tmp)
		return fail(StageVerify, "", fmt.Errorf("读取临时文件信息失败: %w", err))
	}
	if tmpInfo.Size() != srcInfo.Size() {
		m.removeTemp(tmp)
		return fail(StageVerify, "", fmt.Errorf("复制不完整: %d/%d 字节", tmpInfo.Size(), srcInfo.Size()))
	}

	if err := m.fs.Remove(src); err != nil {
		// 源文件删不掉时仍然落地目标文件，宁可留下两份也不丢数据
		if ferr := m.fs.Rename(tmp, dst); ferr != nil {
			return fail(StageDelete, tmp, errors.Join(fmt.Errorf("删除原文件失败: %w", err), ferr))
		}
		e := fail(StageDelete, "", fmt.Errorf("删除原文件失败: %w", err))
		e.Finalized = true
		return e
	}

	if err := m.fs.Rename(tmp, dst); err != nil {
		logger.Get().Error().
			Err(err).
			Str("temp", tmp).
			Str("destination", dst).
			Msg("源文件已删除但临时文件重命名失败，请手动处理")
		return fail(StageFinalize, tmp, err)
	}

	return nil
}

func (m *Mover) copyFile(src, dst string, srcInfo os.FileInfo) error {
	sourceFile, err := m.fs.Open(src)
	if err != nil {
		return fmt.Errorf("打开源文件失败: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := m.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("创建目标文件失败: %w", err)
	}

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(destFile, sourceFile, buf); err != nil {
		destFile.Close()
		return fmt.Errorf("复制文件内容失败: %w", err)
	}
	if err := destFile.Sync(); err != nil {
		destFile.Close()
		return fmt.Errorf("同步文件失败: %w", err)
	}
	if err := destFile.Close(); err != nil {
		return fmt.Errorf("关闭目标文件失败: %w", err)
	}

	// 保留修改时间，照片库经常依赖它排序
	if err := m.fs.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		logger.Get().Debug().Err(err).Str("file", dst).Msg("设置修改时间失败")
	}
	return nil
}

func (m *Mover) removeTemp(tmp string) {
	if err := m.fs.Remove(tmp); err != nil && !os.IsNotExist(err) {
		logger.Get().Warn().Err(err).Str("temp", tmp).Msg("清理临时文件失败")
	}
}
