package deduplicator

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/moyu-x/framemover/pkg/hasher"
	"github.com/moyu-x/framemover/pkg/logger"
	"github.com/moyu-x/framemover/pkg/mover"
)

// Index 按目标目录记录已存在内容的摘要。
// 某个目录第一次被查询时才读取并哈希其中的文件，之后只通过 Add 增量更新。
// 只在单次运行内使用，不做淘汰。
type Index struct {
	fs     afero.Fs
	hasher *hasher.Hasher
	dirs   map[string]map[hasher.Digest]string
}

func NewIndex(fs afero.Fs, h *hasher.Hasher) *Index {
	return &Index{
		fs:     fs,
		hasher: h,
		dirs:   make(map[string]map[hasher.Digest]string),
	}
}

// Lookup 查询 dir 中是否已有相同内容的文件，返回该文件路径
func (idx *Index) Lookup(dir string, d hasher.Digest) (string, bool, error) {
	entries, err := idx.load(filepath.Clean(dir))
	if err != nil {
		return "", false, err
	}
	existing, ok := entries[d]
	return existing, ok, nil
}

// Add 记录刚移动到 dir 中的文件
func (idx *Index) Add(dir string, d hasher.Digest, path string) {
	dir = filepath.Clean(dir)
	entries, ok := idx.dirs[dir]
	if !ok {
		// 目录尚未加载时先加载，避免之后的首次查询漏掉已有文件
		loaded, err := idx.load(dir)
		if err != nil {
			loaded = make(map[hasher.Digest]string)
			idx.dirs[dir] = loaded
		}
		entries = loaded
	}
	if _, exists := entries[d]; !exists {
		entries[d] = path
	}
}

// Loaded 目录是否已经建立索引
func (idx *Index) Loaded(dir string) bool {
	_, ok := idx.dirs[filepath.Clean(dir)]
	return ok
}

// Len 已索引的摘要总数
func (idx *Index) Len() int {
	n := 0
	for _, entries := range idx.dirs {
		n += len(entries)
	}
	return n
}

func (idx *Index) load(dir string) (map[hasher.Digest]string, error) {
	if entries, ok := idx.dirs[dir]; ok {
		return entries, nil
	}

	entries := make(map[hasher.Digest]string)

	infos, err := afero.ReadDir(idx.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			idx.dirs[dir] = entries
			return entries, nil
		}
		logger.Get().Error().Err(err).Str("dir", dir).Msg("读取目标目录失败")
		return nil, err
	}

	for _, info := range infos {
		// 跨磁盘回退遗留的临时文件不参与去重
		if !info.Mode().IsRegular() || mover.IsTempFile(info.Name()) {
			continue
		}
		path := filepath.Join(dir, info.Name())
		d, err := idx.hasher.Sum(path)
		if err != nil {
			logger.Get().Warn().Err(err).Str("file", path).Msg("目标文件哈希失败，不参与去重")
			continue
		}
		if _, exists := entries[d]; !exists {
			entries[d] = path
		}
	}

	logger.Get().Debug().Str("dir", dir).Int("files", len(entries)).Msg("目标目录索引完成")
	idx.dirs[dir] = entries
	return entries, nil
}
