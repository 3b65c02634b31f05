package service

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/conv"
)

// Handler 把推荐门面暴露为 HTTP 接口。
// 认证在上游网关完成，这里只做参数解析与错误码映射。
type Handler struct {
	Service *Service
}

// NewHandler 创建 HTTP 处理器。
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// Register 注册路由：
//
//	GET /users/:user_id/recommendations?algorithm=HYBRID&limit=10
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/users/:user_id/recommendations", h.GetRecommendations)
}

// errorBody 是错误响应体，与成功响应共用 success 字段。
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// GetRecommendations 处理推荐查询请求。
//
// 错误码映射：
//   - 未知算法      → 400（客户端错误）
//   - 数据源不可用  → 503（不返回部分/猜测的结果）
//   - 其他          → 500
func (h *Handler) GetRecommendations(c *gin.Context) {
	userID := c.Param("user_id")
	algorithm := c.Query("algorithm")
	limit, _ := conv.ParseInt(c.Query("limit"))

	result, err := h.Service.GetRecommendations(c.Request.Context(), userID, algorithm, limit)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case core.IsInvalidAlgorithm(err):
			status = http.StatusBadRequest
		case core.IsSourceUnavailable(err):
			status = http.StatusServiceUnavailable
		}
		h.Service.Logger().Error("get recommendations failed",
			zap.String("user_id", userID),
			zap.String("algorithm", algorithm),
			zap.Int("status", status),
			zap.Error(err))
		c.JSON(status, errorBody{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
