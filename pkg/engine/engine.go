package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/moyu-x/framemover/pkg/deduplicator"
	"github.com/moyu-x/framemover/pkg/hasher"
	"github.com/moyu-x/framemover/pkg/logger"
	"github.com/moyu-x/framemover/pkg/matcher"
	"github.com/moyu-x/framemover/pkg/mover"
	"github.com/moyu-x/framemover/pkg/progress"
	"github.com/moyu-x/framemover/pkg/scanner"
	"github.com/moyu-x/framemover/pkg/suffix"
)

const probePrefix = ".framemover-probe-"

// Params 一次运行的输入参数，命令行和交互界面使用同一组参数
type Params struct {
	Source   string
	Dest     string
	Suffixes string
	DryRun   bool
	Verbose  bool
	Precount bool // 先统计文件总数，让百分比估算更准确
}

// Plan 校验通过后的参数
type Plan struct {
	Source   string
	Dest     string
	Suffixes suffix.Set
	DryRun   bool
	Verbose  bool
	Precount bool
}

type Engine struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Engine {
	return &Engine{fs: fs}
}

// Validate 检查源目录与目标目录，解析后缀集合。
// 所有失败都包装 ErrInvalidConfiguration。dry-run 不做写入探测，保证不改动文件系统。
func (e *Engine) Validate(p Params) (*Plan, error) {
	if strings.TrimSpace(p.Source) == "" {
		return nil, invalid("源目录不能为空")
	}
	if strings.TrimSpace(p.Dest) == "" {
		return nil, invalid("目标目录不能为空")
	}
	if !filepath.IsAbs(p.Source) {
		return nil, invalid("源目录必须是绝对路径: %s", p.Source)
	}
	if !filepath.IsAbs(p.Dest) {
		return nil, invalid("目标目录必须是绝对路径: %s", p.Dest)
	}

	src := filepath.Clean(p.Source)
	dst := filepath.Clean(p.Dest)
	if src == dst {
		return nil, invalid("源目录与目标目录相同: %s", src)
	}
	if isWithin(dst, src) {
		return nil, invalid("目标目录不能位于源目录内: %s", dst)
	}

	if err := e.checkDir(src); err != nil {
		return nil, invalidErr("源目录不可用", err)
	}
	if err := e.checkReadable(src); err != nil {
		return nil, invalidErr("源目录不可读", err)
	}
	if err := e.checkDir(dst); err != nil {
		return nil, invalidErr("目标目录不可用", err)
	}

	// 经符号链接互相指向的目录按真实路径再检查一次
	realSrc, realDst := e.realPath(src), e.realPath(dst)
	if realSrc == realDst || e.sameDir(src, dst) {
		return nil, invalid("源目录与目标目录是同一个目录: %s -> %s", dst, realSrc)
	}
	if isWithin(realDst, realSrc) {
		return nil, invalid("目标目录不能位于源目录内: %s -> %s", dst, realDst)
	}
	if !p.DryRun {
		if err := e.checkWritable(dst); err != nil {
			return nil, invalidErr("目标目录不可写", err)
		}
	}

	set, err := suffix.Parse(p.Suffixes)
	if err != nil {
		return nil, invalidErr("后缀无效", err)
	}
	if rejected := set.Rejected(); len(rejected) > 0 {
		logger.Get().Warn().Strs("tokens", rejected).Msg("忽略非数字后缀")
	}

	return &Plan{
		Source:   src,
		Dest:     dst,
		Suffixes: set,
		DryRun:   p.DryRun,
		Verbose:  p.Verbose,
		Precount: p.Precount,
	}, nil
}

// isWithin child 是否位于 parent 之下（均为已清理的绝对路径）
func isWithin(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// realPath 解析符号链接，只对真实文件系统有效，失败时返回原路径
func (e *Engine) realPath(path string) string {
	if _, ok := e.fs.(*afero.OsFs); !ok {
		return path
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

func (e *Engine) sameDir(a, b string) bool {
	ai, err := e.fs.Stat(a)
	if err != nil {
		return false
	}
	bi, err := e.fs.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func (e *Engine) checkDir(path string) error {
	info, err := e.fs.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s 不是目录", path)
	}
	return nil
}

func (e *Engine) checkReadable(path string) error {
	f, err := e.fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (e *Engine) checkWritable(path string) error {
	probe := filepath.Join(path, probePrefix+uuid.NewString())
	f, err := e.fs.OpenFile(probe, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	f.Close()
	return e.fs.Remove(probe)
}

// Run 校验参数后执行，配置错误直接返回
func (e *Engine) Run(ctx context.Context, p Params, pub *progress.Publisher) (*Result, error) {
	plan, err := e.Validate(p)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, plan, pub), nil
}

// Execute 执行一次运行，直到扫描结束或 ctx 被取消。
// 快照发布到 pub（可以为 nil），最后一个快照的阶段为 done 或 cancelled；pub 由调用方关闭。
func (e *Engine) Execute(ctx context.Context, plan *Plan, pub *progress.Publisher) *Result {
	result := &Result{
		RunID:     uuid.NewString(),
		Source:    plan.Source,
		Dest:      plan.Dest,
		Suffixes:  plan.Suffixes.String(),
		DryRun:    plan.DryRun,
		StartedAt: time.Now(),
	}

	log := logger.Get().With().Str("run", result.RunID).Logger()
	log.Info().
		Str("source", plan.Source).
		Str("dest", plan.Dest).
		Str("suffixes", result.Suffixes).
		Bool("dryRun", plan.DryRun).
		Msg("开始运行")

	total := 0
	if plan.Precount {
		n, err := scanner.Count(ctx, e.fs, plan.Source)
		if err != nil {
			log.Debug().Err(err).Msg("统计文件数量中断")
		} else {
			total = n
		}
	}

	h := hasher.New(e.fs)
	r := &run{
		fs:      e.fs,
		plan:    plan,
		state:   newRunState(total),
		pub:     pub,
		result:  result,
		matcher: matcher.New(plan.Suffixes),
		hasher:  h,
		index:   deduplicator.NewIndex(e.fs, h),
		mover:   mover.New(e.fs),
		exists:  mover.PathExists(e.fs),
		claimed: make(map[string]bool),
	}

	phase := r.loop(ctx)

	r.state.finish(phase)
	result.Final = r.state.Snapshot()
	result.FinishedAt = time.Now()
	r.publish()

	log.Info().
		Str("phase", string(phase)).
		Int("scanned", result.Final.Scanned).
		Int("matched", result.Final.Matched).
		Int("moved", result.Final.Moved).
		Int("skippedDuplicates", result.Final.SkippedDuplicates).
		Int("errors", result.Final.Errors).
		Dur("duration", result.Duration()).
		Msg("运行结束")

	return result
}

type run struct {
	fs      afero.Fs
	plan    *Plan
	state   *RunState
	pub     *progress.Publisher
	result  *Result
	matcher *matcher.Matcher
	hasher  *hasher.Hasher
	index   *deduplicator.Index
	mover   *mover.Mover
	exists  mover.OccupiedFunc
	claimed map[string]bool // dry-run 中模拟移动占用的路径
}

func (r *run) publish() {
	r.pub.Publish(r.state.Snapshot())
}

// loop 逐个处理候选文件，返回终止阶段。取消只在两个候选文件之间生效。
func (r *run) loop(ctx context.Context) progress.Phase {
	r.state.enter(progress.PhaseScanning)
	r.publish()

	sc := scanner.New(r.fs, r.plan.Source)
	for {
		if ctx.Err() != nil {
			return progress.PhaseCancelled
		}

		c, err := sc.Next(ctx)
		if err == io.EOF {
			return progress.PhaseDone
		}
		if err != nil {
			var entryErr *scanner.EntryError
			if errors.As(err, &entryErr) {
				r.fail(Outcome{Source: entryErr.Path}, ErrorKindIO, err)
				r.publish()
				continue
			}
			if ctx.Err() != nil {
				return progress.PhaseCancelled
			}
			r.fail(Outcome{Source: r.plan.Source}, ErrorKindIO, err)
			return progress.PhaseDone
		}

		r.process(c)
		r.state.enter(progress.PhaseScanning)
		r.publish()
	}
}

func (r *run) process(c scanner.Candidate) {
	r.state.scan(c.Path)
	r.state.enter(progress.PhaseMatching)
	r.publish()

	decision := r.matcher.Match(c)
	if !decision.Accepted {
		logger.Get().Trace().Str("file", c.Path).Str("reason", string(decision.Reason)).Msg("跳过")
		return
	}
	r.state.matched++

	out := Outcome{
		Source:    c.Path,
		RelPath:   c.RelPath,
		MIME:      decision.MIME,
		Suffix:    decision.Suffix,
		Simulated: r.plan.DryRun,
	}

	desired := filepath.Join(r.plan.Dest, c.RelPath)
	destDir := filepath.Dir(desired)

	r.state.enter(progress.PhaseHashing)
	r.publish()

	digest, err := r.hasher.Sum(c.Path)
	if err != nil {
		r.fail(out, ErrorKindIO, fmt.Errorf("计算文件哈希失败: %w", err))
		return
	}
	out.Digest = digest.String()

	existing, found, err := r.index.Lookup(destDir, digest)
	if err != nil {
		r.fail(out, ErrorKindIO, fmt.Errorf("建立目标目录索引失败: %w", err))
		return
	}
	if found {
		r.state.skipped++
		out.Kind = OutcomeSkippedDuplicate
		out.Path = existing
		r.record(out)
		logger.Get().Debug().Str("file", c.Path).Str("existing", existing).Msg("内容重复，跳过")
		return
	}

	final, err := mover.Resolve(desired, r.occupied)
	if err != nil {
		r.fail(out, ErrorKindIO, err)
		return
	}
	if final != desired {
		logger.Get().Debug().Str("file", c.Path).Str("renamed", final).Msg("目标文件名冲突，重命名")
	}

	r.state.enter(progress.PhaseMoving)
	r.publish()

	if r.plan.DryRun {
		r.claimed[final] = true
	} else if err := r.mover.Move(c.Path, final); err != nil {
		var fbErr *mover.FallbackError
		if errors.As(err, &fbErr) {
			if fbErr.Finalized {
				// 目标文件已落地，后续相同内容应视为重复
				r.index.Add(destDir, digest, final)
				out.Path = final
			} else {
				out.Path = fbErr.TempPath
			}
			r.fail(out, ErrorKindCrossDevice, err)
			return
		}
		r.fail(out, ErrorKindIO, err)
		return
	}

	r.index.Add(destDir, digest, final)
	r.state.moved++
	out.Kind = OutcomeMoved
	out.Path = final
	r.record(out)
	logger.Get().Debug().
		Str("file", c.Path).
		Str("destination", final).
		Bool("dryRun", r.plan.DryRun).
		Msg("移动文件")
}

func (r *run) occupied(path string) (bool, error) {
	if r.claimed[path] {
		return true, nil
	}
	return r.exists(path)
}

func (r *run) fail(out Outcome, kind ErrorKind, err error) {
	r.state.errors++
	out.Kind = OutcomeError
	out.ErrorKind = kind
	out.Message = err.Error()
	r.record(out)
	logger.Get().Error().Err(err).Str("file", out.Source).Str("kind", string(kind)).Msg("处理文件失败")
}

func (r *run) record(out Outcome) {
	r.result.Outcomes = append(r.result.Outcomes, out)
}
