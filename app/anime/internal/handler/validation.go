package handler

import (
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/command"
	webvalidator "github.com/MAKORA-ltd/anime-play/pkg/web/validator"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations 注册请求体使用的自定义校验规则，需在路由注册前调用
func RegisterValidations() error {
	return webvalidator.Init(map[string]validator.Func{
		"callback": func(fl validator.FieldLevel) bool {
			_, err := command.ParseCallback(fl.Field().String())
			return err == nil
		},
	})
}
