package service

import "time"

// AddMonthsClamp прибавляет календарные месяцы с прижатием дня к концу
// целевого месяца: 31 января + 1 месяц = 28/29 февраля, а не 2/3 марта.
// Стандартный AddDate переносит лишние дни на следующий месяц, что для
// сроков выкупа недопустимо.
func AddMonthsClamp(t time.Time, months int) time.Time {
	year := t.Year()
	month := int(t.Month()) + months
	// Нормализация месяца в диапазон 1..12
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	if month <= 0 {
		month += 12
		year--
	}

	day := t.Day()
	if last := daysInMonth(year, time.Month(month)); day > last {
		day = last
	}

	return time.Date(year, time.Month(month), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth возвращает число дней в месяце
func daysInMonth(year int, month time.Month) int {
	// Нулевой день следующего месяца = последний день текущего
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthsElapsed возвращает число расчетных месяцев между датой выдачи
// и текущим моментом: минимум один, неполный месяц считается полным.
func MonthsElapsed(from, now time.Time) int {
	if !now.After(from) {
		return 1
	}

	months := 1
	for months < 1200 && !now.Before(AddMonthsClamp(from, months)) {
		months++
	}
	return months
}
