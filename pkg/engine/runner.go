package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/moyu-x/framemover/pkg/logger"
	"github.com/moyu-x/framemover/pkg/progress"
)

// Runner 在后台单个工作协程中执行运行，同一时间只允许一个运行
type Runner struct {
	engine *Engine
	pool   *ants.Pool

	mu     sync.Mutex
	active *Handle
}

// Handle 一次后台运行
type Handle struct {
	pub    *progress.Publisher
	cancel context.CancelFunc
	done   chan struct{}
	result *Result
}

// Snapshots 最新快照通道，运行结束后关闭
func (h *Handle) Snapshots() <-chan progress.Snapshot {
	return h.pub.C()
}

// Done 运行结束时关闭
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait 等待运行结束并返回结果
func (h *Handle) Wait() *Result {
	<-h.done
	return h.result
}

// Cancel 请求取消，正在进行的哈希或移动会先完成
func (h *Handle) Cancel() {
	h.cancel()
}

func NewRunner(e *Engine) (*Runner, error) {
	// 阻塞模式：上一个运行的协程归还之前提交会等待，而不是报错
	pool, err := ants.NewPool(1, ants.WithPanicHandler(func(p interface{}) {
		logger.Get().Error().Msgf("运行异常终止: %v", p)
	}))
	if err != nil {
		logger.Get().Error().Err(err).Msg("创建 goroutine 池失败")
		return nil, err
	}
	return &Runner{engine: e, pool: pool}, nil
}

// Start 同步校验参数后在后台开始运行。
// 配置错误直接返回；已有运行时返回 ErrRunActive。
func (r *Runner) Start(ctx context.Context, p Params) (*Handle, error) {
	plan, err := r.engine.Validate(p)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, ErrRunActive
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		pub:    progress.NewPublisher(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.active = h

	err = r.pool.Submit(func() {
		defer func() {
			r.mu.Lock()
			if r.active == h {
				r.active = nil
			}
			r.mu.Unlock()

			h.pub.Close()
			cancel()
			close(h.done)
		}()

		h.result = r.engine.Execute(runCtx, plan, h.pub)
	})
	if err != nil {
		r.active = nil
		cancel()
		return nil, fmt.Errorf("提交运行失败: %w", err)
	}

	return h, nil
}

// Cancel 取消当前运行，没有运行时什么也不做
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		logger.Get().Info().Msg("收到取消请求")
		r.active.cancel()
	}
}

// Active 是否有运行在进行中
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

func (r *Runner) Release() {
	r.pool.Release()
}
