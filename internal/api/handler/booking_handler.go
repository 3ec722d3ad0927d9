package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-booking/backend/internal/dto"
	"campus-booking/backend/internal/service"
	pkgerrors "campus-booking/backend/pkg/errors"
	"campus-booking/backend/pkg/response"
)

// BookingHandler 预约模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc service.BookingService
	slotSvc    service.SlotService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService, slotSvc service.SlotService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc, slotSvc: slotSvc}
}

// CreateBooking 创建预约
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	booking, err := h.bookingSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.Created(c, booking)
}

// GetMyBookings 我的预约列表
// GET /api/v1/bookings/my
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bookings, err := h.bookingSvc.GetMyBookings(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, bookings)
}

// GetAllBookings 全部预约列表（管理员）
// GET /api/v1/bookings/all
func (h *BookingHandler) GetAllBookings(c *gin.Context) {
	bookings, err := h.bookingSvc.GetAllBookings(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, bookings)
}

// GetBookingHistory 预约状态历史
// GET /api/v1/bookings/:id/history
func (h *BookingHandler) GetBookingHistory(c *gin.Context) {
	history, err := h.bookingSvc.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			response.NotFound(c, 40001, "预约不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, history)
}

// GetAvailableSlots 查询资源某日的可预约时段
// GET /api/v1/bookings/slots/:resourceId?date=2026-09-01
func (h *BookingHandler) GetAvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, 10001, "缺少 date 参数")
		return
	}

	slots, err := h.slotSvc.GetAvailableSlots(c.Request.Context(), c.Param("resourceId"), date)
	if err != nil {
		writeBookingError(c, err)
		return
	}

	response.OK(c, slots)
}

// writeBookingError 预约模块统一错误映射
// 请求级错误 → 400；业务规则拒绝与配额超限 → 409（细分 code 供前端区分提示）；
// 资源/预约不存在 → 404
func writeBookingError(c *gin.Context, err error) {
	switch {
	// 请求级错误
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrNonPositiveDuration),
		errors.Is(err, service.ErrNotWholeHour):
		response.BadRequest(c, 10001, err.Error())

	// 不存在
	case errors.Is(err, service.ErrResourceNotFound):
		response.NotFound(c, 30001, err.Error())
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 40001, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, err.Error())

	// 业务规则拒绝
	case errors.Is(err, service.ErrPastDate):
		response.Conflict(c, 40101, err.Error())
	case errors.Is(err, service.ErrPastStartTime):
		response.Conflict(c, 40102, err.Error())
	case errors.Is(err, service.ErrOutsideOperatingHours):
		response.Conflict(c, 40103, err.Error())
	case errors.Is(err, service.ErrLunchOverlap):
		response.Conflict(c, 40104, err.Error())
	case errors.Is(err, service.ErrTimeSlotConflict):
		response.Conflict(c, 40105, err.Error())
	case errors.Is(err, service.ErrResourceUnavailable):
		response.Conflict(c, 40106, err.Error())

	// 配额超限：四个维度各自独立 code
	case errors.Is(err, service.ErrDailyBookingLimit):
		response.Conflict(c, 40201, err.Error())
	case errors.Is(err, service.ErrMonthlyBookingLimit):
		response.Conflict(c, 40202, err.Error())
	case errors.Is(err, service.ErrDailyHoursLimit):
		response.Conflict(c, 40203, err.Error())
	case errors.Is(err, service.ErrMonthlyHoursLimit):
		response.Conflict(c, 40204, err.Error())

	// 并发提交竞争：重试一次后仍失败
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 40901, err.Error())

	case errors.Is(err, service.ErrPolicyNotFound):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/booking_handler.go
