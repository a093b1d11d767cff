package idgen

import "sync/atomic"

// Generator ID 生成器
type Generator interface {
	// NextID 生成下一个唯一 ID，严格为正数
	NextID() (int64, error)
}

// Sequence 进程内自增生成器，用于测试和单机 SQLite 部署的初始化脚本
type Sequence struct {
	n atomic.Int64
}

// NewSequence 从 start 之后开始发号
func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

func (s *Sequence) NextID() (int64, error) {
	return s.n.Add(1), nil
}
