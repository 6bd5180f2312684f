package service

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidWeekKey 周次格式无效
var ErrInvalidWeekKey = errors.New("周次格式无效，应为 YYYY-WW")

// WeekKey 计算 t 所在的周次 "YYYY-WW"
// 周号 = ceil((自1月1日零点起的天数（含小数） + 1月1日星期几 + 1) / 7)，t 的时区决定年份与1月1日
// 天数按小数计，周六零点之后即进入下一周次
func WeekKey(t time.Time) string {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	days := float64(t.Sub(jan1)) / float64(24*time.Hour)
	week := int(math.Ceil((days + float64(jan1.Weekday()) + 1) / 7))
	return fmt.Sprintf("%d-%02d", t.Year(), week)
}

// ParseWeekKey 解析 "YYYY-WW"
func ParseWeekKey(key string) (year, week int, err error) {
	if _, err := fmt.Sscanf(key, "%4d-%2d", &year, &week); err != nil {
		return 0, 0, ErrInvalidWeekKey
	}
	if week < 1 || week > 54 {
		return 0, 0, ErrInvalidWeekKey
	}
	return year, week, nil
}

// WeekWindow 返回周次的时间窗口 [start, end]
// start = 1月1日 + ((w-1)*7 - 1月1日星期几 + 1) 天，end = start + 6 天，两端闭区间
func WeekWindow(key string, loc *time.Location) (start, end time.Time, err error) {
	year, week, err := ParseWeekKey(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	start = jan1.AddDate(0, 0, (week-1)*7-int(jan1.Weekday())+1)
	end = start.AddDate(0, 0, 6)
	return start, end, nil
}
