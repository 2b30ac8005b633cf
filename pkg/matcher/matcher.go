package matcher

import (
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"

	"github.com/moyu-x/framemover/pkg/scanner"
	"github.com/moyu-x/framemover/pkg/suffix"
)

// Reason 匹配结果的原因
type Reason string

const (
	ReasonExtension Reason = "extension_rejected"
	ReasonSuffix    Reason = "suffix_rejected"
	ReasonAccepted  Reason = "accepted"
)

// 支持的图片扩展名（小写）
var imageExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"heic": true,
	"gif":  true,
	"tiff": true,
	"tif":  true,
	"webp": true,
}

// filetype 只登记了每种类型的一个扩展名
var extAliases = map[string]string{
	"jpeg": "jpg",
	"tiff": "tif",
	"heic": "heif",
}

// Decision 单个候选文件的匹配结果
type Decision struct {
	Accepted bool
	Reason   Reason
	Suffix   string // 第一个命中的后缀
	MIME     string
}

type Matcher struct {
	suffixes suffix.Set
}

func New(set suffix.Set) *Matcher {
	return &Matcher{suffixes: set}
}

// Match 判断候选文件是否需要移动：扩展名必须是图片，stem 必须以某个后缀结尾
func (m *Matcher) Match(c scanner.Candidate) Decision {
	ext := strings.ToLower(c.Ext)
	if !IsImageExt(ext) {
		return Decision{Reason: ReasonExtension}
	}

	matched, ok := m.suffixes.MatchStem(c.Stem)
	if !ok {
		return Decision{Reason: ReasonSuffix}
	}

	return Decision{
		Accepted: true,
		Reason:   ReasonAccepted,
		Suffix:   matched,
		MIME:     MIMEForExt(ext),
	}
}

// IsImageExt 扩展名不含 "."，大小写不敏感
func IsImageExt(ext string) bool {
	return imageExtensions[strings.ToLower(ext)]
}

// MIMEForExt 根据扩展名返回 MIME 类型，未知时返回空字符串
func MIMEForExt(ext string) string {
	ext = strings.ToLower(ext)
	if alias, ok := extAliases[ext]; ok {
		ext = alias
	}
	kind := filetype.GetType(ext)
	if kind == types.Unknown {
		return ""
	}
	return kind.MIME.Value
}
