package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-booking/backend/internal/dto"
	"campus-booking/backend/internal/service"
	pkgerrors "campus-booking/backend/pkg/errors"
	"campus-booking/backend/pkg/response"
)

// ResourceHandler 资源模块 HTTP 处理器
type ResourceHandler struct {
	resourceSvc service.ResourceService
}

// NewResourceHandler 创建 ResourceHandler
func NewResourceHandler(resourceSvc service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceSvc: resourceSvc}
}

// CreateResource 创建资源（管理员）
// POST /api/v1/resources
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resource, err := h.resourceSvc.CreateResource(c.Request.Context(), &req, operatorID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Created(c, resource)
}

// UpdateResource 更新资源（管理员）
// PUT /api/v1/resources/:id
func (h *ResourceHandler) UpdateResource(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resource, err := h.resourceSvc.UpdateResource(c.Request.Context(), c.Param("id"), &req, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResourceNotFound):
			response.NotFound(c, 30001, "资源不存在")
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			response.Conflict(c, 30002, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, resource)
}

// ChangeResourceStatus 变更资源状态（管理员）
// PATCH /api/v1/resources/:id/status
func (h *ResourceHandler) ChangeResourceStatus(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangeResourceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resource, err := h.resourceSvc.ChangeStatus(c.Request.Context(), c.Param("id"), &req, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResourceNotFound):
			response.NotFound(c, 30001, "资源不存在")
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			response.Conflict(c, 30002, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, resource)
}

// ListResources 资源列表
// GET /api/v1/resources
func (h *ResourceHandler) ListResources(c *gin.Context) {
	resources, err := h.resourceSvc.ListResources(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, resources)
}

// GetResource 资源详情
// GET /api/v1/resources/:id
func (h *ResourceHandler) GetResource(c *gin.Context) {
	resource, err := h.resourceSvc.GetResource(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrResourceNotFound) {
			response.NotFound(c, 30001, "资源不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, resource)
}
