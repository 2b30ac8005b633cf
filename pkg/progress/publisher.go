package progress

import "sync"

// Publisher 单槽位的快照通道：发布方永不阻塞，未被消费的旧快照会被新快照覆盖。
// 只允许一个发布方；nil Publisher 丢弃所有快照。
type Publisher struct {
	mu     sync.Mutex
	ch     chan Snapshot
	closed bool
}

func NewPublisher() *Publisher {
	return &Publisher{ch: make(chan Snapshot, 1)}
}

// Publish 投递快照，槽位被占用时替换掉旧值
func (p *Publisher) Publish(s Snapshot) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	select {
	case p.ch <- s:
		return
	default:
	}

	select {
	case <-p.ch:
	default:
	}
	p.ch <- s
}

// C 返回接收端，Close 之后读完剩余快照即结束
func (p *Publisher) C() <-chan Snapshot {
	if p == nil {
		return nil
	}
	return p.ch
}

// Close 在最后一个快照之后调用，重复调用无副作用
func (p *Publisher) Close() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}
