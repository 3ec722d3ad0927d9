package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"campus-booking/backend/internal/dto"
	"campus-booking/backend/internal/service"
	pkgerrors "campus-booking/backend/pkg/errors"
	"campus-booking/backend/pkg/response"
)

// ApprovalHandler 审批模块 HTTP 处理器
type ApprovalHandler struct {
	approvalSvc service.ApprovalService
}

// NewApprovalHandler 创建 ApprovalHandler
func NewApprovalHandler(approvalSvc service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc}
}

// StaffApprove 导师阶段通过
// POST /api/v1/bookings/:id/staff-approve
func (h *ApprovalHandler) StaffApprove(c *gin.Context) {
	h.transition(c, h.approvalSvc.StaffApprove)
}

// StaffReject 导师阶段驳回
// POST /api/v1/bookings/:id/staff-reject
func (h *ApprovalHandler) StaffReject(c *gin.Context) {
	h.transition(c, h.approvalSvc.StaffReject)
}

// AdminApprove 管理员阶段通过
// POST /api/v1/bookings/:id/admin-approve
func (h *ApprovalHandler) AdminApprove(c *gin.Context) {
	h.transition(c, h.approvalSvc.AdminApprove)
}

// AdminReject 管理员阶段驳回
// POST /api/v1/bookings/:id/admin-reject
func (h *ApprovalHandler) AdminReject(c *gin.Context) {
	h.transition(c, h.approvalSvc.AdminReject)
}

// GetPendingForStaff 待导师审批列表
// GET /api/v1/bookings/pending-staff
func (h *ApprovalHandler) GetPendingForStaff(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bookings, err := h.approvalSvc.GetPendingForStaff(c.Request.Context(), callerID)
	if err != nil {
		writeApprovalError(c, err)
		return
	}

	response.OK(c, bookings)
}

// GetPendingForAdmin 待管理员审批列表
// GET /api/v1/bookings/pending-admin
func (h *ApprovalHandler) GetPendingForAdmin(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bookings, err := h.approvalSvc.GetPendingForAdmin(c.Request.Context(), callerID)
	if err != nil {
		writeApprovalError(c, err)
		return
	}

	response.OK(c, bookings)
}

// GetStaffStudentBookings 导师名下学生的全部预约
// GET /api/v1/bookings/my-students
func (h *ApprovalHandler) GetStaffStudentBookings(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bookings, err := h.approvalSvc.GetStaffStudentBookings(c.Request.Context(), callerID)
	if err != nil {
		writeApprovalError(c, err)
		return
	}

	response.OK(c, bookings)
}

// GetStaffBookingStats 导师视角的阶段分桶统计
// GET /api/v1/bookings/my-students/stats
func (h *ApprovalHandler) GetStaffBookingStats(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stats, err := h.approvalSvc.GetStaffBookingStats(c.Request.Context(), callerID)
	if err != nil {
		writeApprovalError(c, err)
		return
	}

	response.OK(c, stats)
}

// transition 四个流转端点的公共骨架
func (h *ApprovalHandler) transition(c *gin.Context, op func(ctx context.Context, bookingID, callerID string) (*dto.BookingResponse, error)) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booking, err := op(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		writeApprovalError(c, err)
		return
	}

	response.OK(c, booking)
}

// writeApprovalError 审批模块统一错误映射
func writeApprovalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 40001, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, err.Error())

	// 阶段守卫
	case errors.Is(err, service.ErrNotPendingStaff):
		response.Conflict(c, 42001, err.Error())
	case errors.Is(err, service.ErrNotPendingAdmin):
		response.Conflict(c, 42002, err.Error())

	// 角色与归属守卫
	case errors.Is(err, service.ErrStaffActorOnly),
		errors.Is(err, service.ErrAdminActorOnly):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, service.ErrAdvisorMismatch):
		response.Forbidden(c, 42003, err.Error())
	case errors.Is(err, service.ErrNoAdvisorAssigned):
		response.Conflict(c, 42004, err.Error())

	// 并发审批竞争
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 40901, err.Error())

	default:
		response.InternalError(c)
	}
}
