package planner

import "time"

const (
	DateLayout = "2006-01-02"
	weekDays   = 7
)

// Day отбрасывает время суток, оставляя календарную дату в UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart возвращает понедельник недели, в которую попадает t.
func WeekStart(t time.Time) time.Time {
	day := Day(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// NormalizeRange проверяет диапазон дат и приводит его к календарным дням.
func NormalizeRange(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}

	start, end = Day(start), Day(end)
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}

	return start, end, nil
}

// ListName формирует название списка по диапазону, например "Week of Jan 02 - Jan 08".
func ListName(start, end time.Time) string {
	return "Week of " + start.Format("Jan 02") + " - " + end.Format("Jan 02")
}
