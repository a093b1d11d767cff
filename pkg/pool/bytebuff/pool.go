// Package bytebuff 基于 valyala/bytebufferpool 的缓冲池
package bytebuff

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Pool 带统计的缓冲池
type Pool struct {
	pool bytebufferpool.Pool
	gets atomic.Uint64
	puts atomic.Uint64
}

var defaultPool = &Pool{}

// Get 取出一个已清空的缓冲
func (p *Pool) Get() *bytebufferpool.ByteBuffer {
	p.gets.Add(1)
	return p.pool.Get()
}

// Put 归还缓冲，归还后不能再使用
func (p *Pool) Put(buf *bytebufferpool.ByteBuffer) {
	if buf == nil {
		return
	}
	p.puts.Add(1)
	p.pool.Put(buf)
}

// Stats 返回取出与归还次数
func (p *Pool) Stats() (gets, puts uint64) {
	return p.gets.Load(), p.puts.Load()
}

// Get 从默认池取出缓冲
func Get() *bytebufferpool.ByteBuffer { return defaultPool.Get() }

// Put 归还到默认池
func Put(buf *bytebufferpool.ByteBuffer) { defaultPool.Put(buf) }

// Stats 默认池统计
func Stats() (gets, puts uint64) { return defaultPool.Stats() }
