package web

import (
	"errors"
	"net/http"
	"strconv"

	weberrors "github.com/MAKORA-ltd/anime-play/pkg/web/errors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindAndValidate 绑定请求参数并校验，失败时已写入响应
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			Error(c, http.StatusBadRequest, weberrors.CodeInvalidParams, verrs.Error())
			return false
		}
		Error(c, http.StatusBadRequest, weberrors.CodeInvalidParams, "invalid request parameters: "+err.Error())
		return false
	}
	return true
}

// GetQuery 获取查询参数，带默认值
func GetQuery(c *gin.Context, key, defaultValue string) string {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetQueryInt 获取整数查询参数，缺失或无法解析时返回默认值
func GetQueryInt(c *gin.Context, key string, defaultValue int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultValue
	}
	return n
}

// ParamInt64 解析路径参数
func ParamInt64(c *gin.Context, key string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, weberrors.CodeInvalidParams, "invalid "+key)
		return 0, false
	}
	return n, true
}
