package progress

const (
	// 未知总数时的曲线参数：扫描 100 个文件约到 50%
	unknownTotalHalfway = 100
	maxRunningPercent   = 99
)

// Estimator 估算完成百分比，保证单调不减，只有正常完成时才到 100
type Estimator struct {
	total int
	last  float64
}

// NewEstimator total <= 0 表示总数未知
func NewEstimator(total int) *Estimator {
	return &Estimator{total: total}
}

// Update 根据已扫描数量更新估算值
func (e *Estimator) Update(scanned int) float64 {
	var v float64
	switch {
	case scanned <= 0:
		v = 0
	case e.total > 0:
		v = float64(scanned) * 100 / float64(e.total)
	default:
		v = maxRunningPercent * float64(scanned) / float64(scanned+unknownTotalHalfway)
	}

	if v > maxRunningPercent {
		v = maxRunningPercent
	}
	if v > e.last {
		e.last = v
	}
	return e.last
}

// Finish 正常完成时返回 100；取消时保持最后的估算值
func (e *Estimator) Finish(phase Phase) float64 {
	if phase == PhaseDone {
		e.last = 100
	}
	return e.last
}

func (e *Estimator) Percent() float64 {
	return e.last
}
