package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/moyu-x/framemover/pkg/logger"
)

const BufferSize = 64 * 1024

// Digest 文件内容的 SHA-256 摘要
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Hasher 计算文件内容摘要，两个文件摘要相同即视为内容相同
type Hasher struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Hasher {
	return &Hasher{fs: fs}
}

// Sum 读取整个文件并返回摘要。
// 读取的字节数与打开时的文件大小不一致（被截断或仍在写入）时返回错误。
func (h *Hasher) Sum(path string) (Digest, error) {
	logger.Get().Debug().Msgf("计算文件哈希: %s", path)

	file, err := h.fs.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Digest{}, fmt.Errorf("读取文件信息失败: %w", err)
	}

	sum := sha256.New()
	buf := make([]byte, BufferSize)
	n, err := io.CopyBuffer(sum, file, buf)
	if err != nil {
		return Digest{}, fmt.Errorf("计算哈希失败: %w", err)
	}
	if n != info.Size() {
		return Digest{}, fmt.Errorf("计算哈希失败: 读取 %d 字节，文件大小 %d 字节: %w", n, info.Size(), io.ErrUnexpectedEOF)
	}

	var d Digest
	copy(d[:], sum.Sum(nil))
	logger.Get().Trace().Msgf("文件哈希计算完成: %s -> %s", path, d)
	return d, nil
}
