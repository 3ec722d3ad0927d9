package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-booking/backend/internal/model"
	"campus-booking/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoBookings   = errors.New("没有可导出的预约记录")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 预约总表导出为 Excel (.xlsx)，管理员使用
//   - 个人日历导出为 iCalendar (.ics)，仅含已通过的预约
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportBookingsReport 导出全量预约总表为 Excel
	ExportBookingsReport(ctx context.Context) (*bytes.Buffer, string, error)
	// ExportMyCalendar 导出个人已通过的预约为 iCalendar
	ExportMyCalendar(ctx context.Context, userID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportBookingsReport — 导出预约总表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：单 Sheet，一行一条预约
// 表头: | 预约人 | 角色 | 资源 | 日期 | 时段 | 时长(h) | 审批阶段 | 创建时间 |

func (s *exportService) ExportBookingsReport(ctx context.Context) (*bytes.Buffer, string, error) {
	bookings, err := s.repo.Booking.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询预约总表失败", zap.Error(err))
		return nil, "", err
	}
	if len(bookings) == 0 {
		return nil, "", ErrExportNoBookings
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "预约总表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	widths := []float64{20, 10, 20, 14, 16, 9, 20, 22}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"预约人", "角色", "资源", "日期", "时段", "时长(h)", "审批阶段", "创建时间"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, fmt.Sprintf("%s1", col), h)
		f.SetCellStyle(sheetName, fmt.Sprintf("%s1", col), fmt.Sprintf("%s1", col), headerStyle)
	}

	row := 2
	for i := range bookings {
		b := &bookings[i]
		userName, userRole := "-", "-"
		if b.User != nil {
			userName, userRole = b.User.Name, b.User.Role
		}
		resourceName := "-"
		if b.Resource != nil {
			resourceName = b.Resource.Name
		}

		values := []interface{}{
			userName,
			userRole,
			resourceName,
			b.BookingDate.Format("2006-01-02"),
			fmt.Sprintf("%s-%s", normalizeClock(b.StartTime), normalizeClock(b.EndTime)),
			b.DurationHours,
			b.ApprovalStage,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("预约总表_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportMyCalendar — 导出个人预约为 iCalendar (RFC 5545)
// ═══════════════════════════════════════════════════════════
//
// 仅导出已通过的预约（APPROVED / APPROVED_STAFF_ONLY）；
// 待审与驳回的预约不进日历

func (s *exportService) ExportMyCalendar(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	bookings, err := s.repo.Booking.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询个人预约失败", zap.String("user_id", userID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//campus-booking//EN")

	count := 0
	for i := range bookings {
		b := &bookings[i]
		if b.ApprovalStage != model.StageApproved && b.ApprovalStage != model.StageApprovedStaffOnly {
			continue
		}

		start, err := combineDateTime(b.BookingDate, b.StartTime)
		if err != nil {
			s.logger.Warn("预约时间解析失败，跳过",
				zap.String("booking_id", b.BookingID), zap.Error(err))
			continue
		}
		end, err := combineDateTime(b.BookingDate, b.EndTime)
		if err != nil {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s@campus-booking", b.BookingID))
		event.SetCreatedTime(b.CreatedAt)
		event.SetDtStampTime(s.now())
		event.SetStartAt(start)
		event.SetEndAt(end)
		summary := "资源预约"
		if b.Resource != nil {
			summary = b.Resource.Name
			event.SetLocation(b.Resource.Name)
		}
		event.SetSummary(summary)
		count++
	}

	if count == 0 {
		return nil, "", ErrExportNoBookings
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("我的预约_%s.ics", user.Name)
	return buf, filename, nil
}

// combineDateTime 日期 + "HH:MM" 合成本地时刻
func combineDateTime(date time.Time, clock string) (time.Time, error) {
	minutes, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	day := dateOnly(date)
	return day.Add(time.Duration(minutes) * time.Minute), nil
}
