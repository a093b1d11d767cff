// Package seed 从 YAML 文件导入图鉴
package seed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/checksum"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"gopkg.in/yaml.v3"
)

// File 种子文件
//
//	characters:
//	  - name: Rem
//	    series: Re:Zero
//	    image_ref: https://...
//	    tier: 2
type File struct {
	Characters []service.NewCharacter `yaml:"characters"`
}

// Catalog 导入目标
type Catalog interface {
	Exists(ctx context.Context, name, series string) (bool, error)
	AddCharacter(ctx context.Context, adminID int64, in service.NewCharacter) (*model.Character, error)
}

// Result 导入统计
type Result struct {
	Added   int
	Skipped int
	// Checksum 种子文件内容的 xxhash，便于在日志中比对不同实例导入的版本
	Checksum string
}

// Parse 解析种子内容，未知字段视为错误
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return &f, nil
}

// LoadFile 读取并导入种子文件；同名同作品的角色跳过，可重复执行
func LoadFile(ctx context.Context, path string, catalog Catalog, adminID int64, l logger.Logger) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	sum, err := checksum.New(checksum.TypeXXHash)
	if err != nil {
		return Result{}, err
	}
	fingerprint := checksum.Hex(sum, raw)

	f, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return Result{Checksum: fingerprint}, err
	}
	res, err := Apply(ctx, f, catalog, adminID, l.WithFields("seed_checksum", fingerprint))
	res.Checksum = fingerprint
	return res, err
}

// Apply 导入解析后的角色
func Apply(ctx context.Context, f *File, catalog Catalog, adminID int64, l logger.Logger) (Result, error) {
	var res Result
	for i, c := range f.Characters {
		exists, err := catalog.Exists(ctx, c.Name, c.Series)
		if err != nil {
			return res, err
		}
		if exists {
			res.Skipped++
			continue
		}
		if _, err := catalog.AddCharacter(ctx, adminID, c); err != nil {
			return res, fmt.Errorf("failed to seed character #%d %q: %w", i, c.Name, err)
		}
		res.Added++
	}
	l.Info("catalog seeded", "added", res.Added, "skipped", res.Skipped)
	return res, nil
}
