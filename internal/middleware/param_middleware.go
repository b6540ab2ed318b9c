package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam создает middleware для извлечения и валидации числового параметра URL.
// paramName - имя параметра в URL (например, "id").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
// Нечисловой или нулевой параметр дает 404: такого ресурса не существует.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil || id == 0 {
			AbortWithError(c, http.StatusNotFound, "Not Found")
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

// UintParam возвращает значение, сохраненное ExtractUintParam
func UintParam(c *gin.Context, contextKey string) uint {
	v, _ := c.Get(contextKey)
	id, _ := v.(uint)
	return id
}
