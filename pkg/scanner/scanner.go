package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/moyu-x/framemover/pkg/logger"
)

// Candidate 扫描得到的源文件，生成后不再修改
type Candidate struct {
	Path    string // 绝对路径
	RelPath string // 相对源根目录的路径
	Name    string
	Stem    string // 去掉最后一个扩展名的文件名
	Ext     string // 小写扩展名，不含 "."
	Size    int64
}

// EntryError 某个目录或条目无法读取，不影响后续扫描
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("读取 %s 失败: %v", e.Path, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Scanner 惰性遍历源目录树。
// 每个目录按名称排序：先产出普通文件，再按名称依次进入子目录。
// 符号链接一律跳过，避免循环。
type Scanner struct {
	fs      afero.Fs
	root    string
	dirs    []string // 待展开目录栈
	pending []Candidate
	started bool
}

func New(fs afero.Fs, root string) *Scanner {
	return &Scanner{
		fs:   fs,
		root: filepath.Clean(root),
	}
}

// Next 返回下一个候选文件。
// 遍历结束返回 io.EOF；目录读取失败返回 *EntryError，调用方可继续调用 Next。
func (s *Scanner) Next(ctx context.Context) (Candidate, error) {
	if !s.started {
		s.started = true
		s.dirs = append(s.dirs, s.root)
	}

	for len(s.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}
		if len(s.dirs) == 0 {
			return Candidate{}, io.EOF
		}

		dir := s.dirs[len(s.dirs)-1]
		s.dirs = s.dirs[:len(s.dirs)-1]

		if err := s.expand(dir); err != nil {
			return Candidate{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}

	c := s.pending[0]
	s.pending = s.pending[1:]
	return c, nil
}

func (s *Scanner) expand(dir string) error {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		logger.Get().Debug().Err(err).Str("path", dir).Msg("读取目录失败")
		return &EntryError{Path: dir, Err: err}
	}

	var subdirs []string
	for _, info := range entries {
		path := filepath.Join(dir, info.Name())
		mode := info.Mode()

		switch {
		case mode&os.ModeSymlink != 0:
			logger.Get().Debug().Str("path", path).Msg("跳过符号链接")
		case mode.IsDir():
			subdirs = append(subdirs, path)
		case mode.IsRegular():
			s.pending = append(s.pending, s.candidate(path, info))
		}
	}

	// 逆序入栈，保证按名称顺序出栈
	for i := len(subdirs) - 1; i >= 0; i-- {
		s.dirs = append(s.dirs, subdirs[i])
	}
	return nil
}

func (s *Scanner) candidate(path string, info os.FileInfo) Candidate {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = info.Name()
	}
	name := info.Name()
	ext := filepath.Ext(name)
	return Candidate{
		Path:    path,
		RelPath: rel,
		Name:    name,
		Stem:    strings.TrimSuffix(name, ext),
		Ext:     strings.ToLower(strings.TrimPrefix(ext, ".")),
		Size:    info.Size(),
	}
}

// Count 统计目录树中的普通文件数量（跳过规则与 Scanner 相同）
func Count(ctx context.Context, fs afero.Fs, root string) (int, error) {
	logger.Get().Debug().Msgf("开始统计文件数量: %s", root)

	s := New(fs, root)
	count := 0
	for {
		_, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			var entryErr *EntryError
			if errors.As(err, &entryErr) {
				continue
			}
			return count, err
		}
		count++
	}

	logger.Get().Debug().Msgf("文件统计完成，共找到 %d 个文件", count)
	return count, nil
}
