// Package checksum 消息与文件的完整性校验
package checksum

import (
	"fmt"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
)

// Hasher 校验和计算器
type Hasher interface {
	Sum(data []byte) uint32
	Verify(data []byte, expected uint32) bool
	Name() string
}

// Type 校验算法类型
type Type string

const (
	TypeCRC32  Type = "crc32"
	TypeCRC32C Type = "crc32c"
	TypeXXHash Type = "xxhash"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// New 创建校验器，空类型返回默认的 CRC32C
func New(t Type) (Hasher, error) {
	switch t {
	case TypeCRC32:
		return tableHasher{name: TypeCRC32, table: crc32.IEEETable}, nil
	case TypeCRC32C, "":
		return tableHasher{name: TypeCRC32C, table: castagnoli}, nil
	case TypeXXHash:
		return xxhashHasher{}, nil
	default:
		return nil, fmt.Errorf("unsupported checksum type: %s", t)
	}
}

// Default 返回默认校验器 (CRC32C)
func Default() Hasher {
	return tableHasher{name: TypeCRC32C, table: castagnoli}
}

// Hex 以 8 位十六进制返回校验和
func Hex(h Hasher, data []byte) string {
	return fmt.Sprintf("%08x", h.Sum(data))
}

type tableHasher struct {
	name  Type
	table *crc32.Table
}

func (h tableHasher) Sum(data []byte) uint32 {
	if data == nil {
		return 0
	}
	return crc32.Checksum(data, h.table)
}

func (h tableHasher) Verify(data []byte, expected uint32) bool {
	return h.Sum(data) == expected
}

func (h tableHasher) Name() string { return string(h.name) }

// xxhashHasher 取 XXHash64 的低 32 位
type xxhashHasher struct{}

func (xxhashHasher) Sum(data []byte) uint32 {
	if data == nil {
		return 0
	}
	return uint32(xxhash.Sum64(data))
}

func (h xxhashHasher) Verify(data []byte, expected uint32) bool {
	return h.Sum(data) == expected
}

func (xxhashHasher) Name() string { return string(TypeXXHash) }
