package suffix

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrEmpty 解析后没有任何有效后缀
var ErrEmpty = errors.New("后缀列表为空")

// Set 有序的后缀集合，成员均为纯数字字符串
type Set struct {
	members  []string
	rejected []string
}

// Parse 解析用户输入的后缀列表（逗号、空白、换行分隔）
// 重复项只保留第一次出现的位置；非数字片段被忽略并记录在 Rejected 中。
// "007" 与 "7" 视为不同的后缀。
func Parse(raw string) (Set, error) {
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	var set Set
	seen := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		if !isDigits(token) {
			set.rejected = append(set.rejected, token)
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		set.members = append(set.members, token)
	}

	if len(set.members) == 0 {
		if len(set.rejected) > 0 {
			return set, fmt.Errorf("%w: 无效片段 %s", ErrEmpty, strings.Join(set.rejected, ", "))
		}
		return set, ErrEmpty
	}

	return set, nil
}

// MustParse 用于测试和常量输入
func MustParse(raw string) Set {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MatchStem 返回第一个作为 stem 结尾的后缀
func (s Set) MatchStem(stem string) (string, bool) {
	for _, m := range s.members {
		if strings.HasSuffix(stem, m) {
			return m, true
		}
	}
	return "", false
}

func (s Set) Members() []string {
	out := make([]string, len(s.members))
	copy(out, s.members)
	return out
}

// Rejected 返回解析时被忽略的非数字片段
func (s Set) Rejected() []string {
	out := make([]string, len(s.rejected))
	copy(out, s.rejected)
	return out
}

func (s Set) Len() int {
	return len(s.members)
}

func (s Set) String() string {
	return strings.Join(s.members, ",")
}
