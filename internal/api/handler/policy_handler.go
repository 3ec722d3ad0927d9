package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-booking/backend/internal/service"
	"campus-booking/backend/pkg/response"
)

// PolicyHandler 配额策略 HTTP 处理器
type PolicyHandler struct {
	policySvc service.PolicyService
}

// NewPolicyHandler 创建 PolicyHandler
func NewPolicyHandler(policySvc service.PolicyService) *PolicyHandler {
	return &PolicyHandler{policySvc: policySvc}
}

// GetRemaining 当前用户的剩余配额
// GET /api/v1/policies/remaining
func (h *PolicyHandler) GetRemaining(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	remaining, err := h.policySvc.GetRemaining(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, err.Error())
		case errors.Is(err, service.ErrPolicyNotFound):
			response.NotFound(c, 43001, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, remaining)
}

// ListPolicies 全部角色的配额策略（管理员）
// GET /api/v1/policies
func (h *PolicyHandler) ListPolicies(c *gin.Context) {
	policies, err := h.policySvc.ListPolicies(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, policies)
}
