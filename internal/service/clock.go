package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ── 营业时间常量（分钟表示，自午夜起）──
// 营业区间 09:00–16:00，午休 12:30–13:30，时段步长 60 分钟
const (
	operatingStartMin = 9 * 60
	operatingEndMin   = 16 * 60
	lunchStartMin     = 12*60 + 30
	lunchEndMin       = 13*60 + 30
	slotDurationMin   = 60
)

// parseClock 解析 "HH:MM" 或 "HH:MM:SS" 为自午夜起的分钟数
// PostgreSQL TIME 列扫描回字符串时带秒，请求体中不带，两种格式都接受
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("非法时间格式 %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("非法时间格式 %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("非法时间格式 %q", s)
	}
	return h*60 + m, nil
}

// formatClock 将分钟数格式化为 "HH:MM"
func formatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// formatClockLabel 将分钟数格式化为 "9:00 AM" 样式
func formatClockLabel(min int) string {
	t := time.Date(2000, 1, 1, min/60, min%60, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}

// rangesOverlap 半开区间 [s1,e1) 与 [s2,e2) 相交判定
// 相接（e1 == s2）不算相交
func rangesOverlap(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// parseDate 解析 "2006-01-02" 格式日期
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// dateOnly 截断到日期（丢弃时分秒与时区偏移的墙钟日期）
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// minuteOfDay 取墙钟时刻对应的分钟数
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// monthRange 参照日期所在自然月的首日与末日
func monthRange(ref time.Time) (time.Time, time.Time) {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}
