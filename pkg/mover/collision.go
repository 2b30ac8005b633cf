package mover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// MaxCollisionAttempts 同名文件重命名的最大尝试次数
const MaxCollisionAttempts = 100000

var ErrTooManyCollisions = errors.New("无法找到可用的文件名")

// OccupiedFunc 判断路径是否已被占用
type OccupiedFunc func(path string) (bool, error)

// Resolve 返回可用的目标路径。
// desired 未被占用时原样返回；否则在扩展名前插入 -1、-2 …… 直到找到空闲路径。
// 只用于“同名但内容不同”的情况，内容相同应在此之前被判定为重复。
func Resolve(desired string, occupied OccupiedFunc) (string, error) {
	taken, err := occupied(desired)
	if err != nil {
		return "", fmt.Errorf("检查文件是否存在失败: %w", err)
	}
	if !taken {
		return desired, nil
	}

	dir := filepath.Dir(desired)
	base := filepath.Base(desired)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 1; i <= MaxCollisionAttempts; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		taken, err := occupied(candidate)
		if err != nil {
			return "", fmt.Errorf("检查文件是否存在失败: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrTooManyCollisions, desired)
}

// PathExists 基于 afero 的占用判断，优先使用 Lstat，悬空的符号链接也算占用
func PathExists(fs afero.Fs) OccupiedFunc {
	return func(path string) (bool, error) {
		var err error
		if l, ok := fs.(afero.Lstater); ok {
			_, _, err = l.LstatIfPossible(path)
		} else {
			_, err = fs.Stat(path)
		}
		if err == nil {
			return true, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
}
