// Package command 网关按钮回调的载荷
//
// 回调载荷只在传输边界解析一次，之后以带类型的 Command 在内部传递：
//
//	catch:<token>         捕捉遭遇
//	release:<token>       放生遭遇
//	trade:<characterId>   以该角色发起公开交易
package command

import (
	"strconv"
	"strings"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
)

// Kind 命令类型
type Kind string

const (
	KindCatch   Kind = "catch"
	KindRelease Kind = "release"
	KindTrade   Kind = "trade"
)

// 网关回调载荷的长度上限
const maxPayloadLen = 4096

// Command 解析后的回调命令
type Command struct {
	Kind        Kind
	Token       string
	CharacterID int64
}

// Catch 捕捉命令
func Catch(token string) Command { return Command{Kind: KindCatch, Token: token} }

// Release 放生命令
func Release(token string) Command { return Command{Kind: KindRelease, Token: token} }

// Trade 发起交易命令
func Trade(characterID int64) Command { return Command{Kind: KindTrade, CharacterID: characterID} }

// String 编码为回调载荷
func (c Command) String() string {
	switch c.Kind {
	case KindTrade:
		return string(c.Kind) + ":" + strconv.FormatInt(c.CharacterID, 10)
	default:
		return string(c.Kind) + ":" + c.Token
	}
}

// ParseCallback 解析回调载荷，格式错误返回 ErrInvalidArgument
func ParseCallback(data string) (Command, error) {
	if len(data) > maxPayloadLen {
		return Command{}, errs.Invalid("callback payload too long")
	}
	kind, arg, ok := strings.Cut(strings.TrimSpace(data), ":")
	if !ok || arg == "" {
		return Command{}, errs.Invalid("malformed callback %q", data)
	}

	switch k := Kind(kind); k {
	case KindCatch, KindRelease:
		return Command{Kind: k, Token: arg}, nil
	case KindTrade:
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return Command{}, errs.Invalid("invalid character id %q", arg)
		}
		return Trade(id), nil
	default:
		return Command{}, errs.Invalid("unknown callback %q", kind)
	}
}
