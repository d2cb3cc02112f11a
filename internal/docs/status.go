// Package docs содержит классификацию статуса регуляторных документов
// автопарка по сроку действия. Чистая арифметика дат, без хранилища.
package docs

import "time"

// Status - статус документа по сроку действия
type Status string

const (
	StatusValid        Status = "valid"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
)

const (
	// ExpiringSoonDays - за сколько дней до истечения документ
	// считается "истекающим"
	ExpiringSoonDays = 30
)

// notifyDays - дни до истечения, в которые отправляется напоминание
var notifyDays = []int{30, 15, 7, 1}

// DaysUntilExpiry возвращает число дней до истечения документа,
// округленное вверх. Отрицательное значение - документ просрочен.
func DaysUntilExpiry(expiry, now time.Time) int {
	diff := expiry.Sub(now)
	const day = 24 * time.Hour

	days := diff / day
	if diff%day > 0 {
		days++
	}
	return int(days)
}

// StatusOf классифицирует документ: просрочен, истекает в ближайшие
// 30 дней или действителен.
func StatusOf(expiry, now time.Time) Status {
	days := DaysUntilExpiry(expiry, now)

	switch {
	case days < 0:
		return StatusExpired
	case days <= ExpiringSoonDays:
		return StatusExpiringSoon
	default:
		return StatusValid
	}
}

// ShouldNotify сообщает, нужно ли отправить напоминание об истечении
// сегодня: ровно за 30, 15, 7 и 1 день до срока.
func ShouldNotify(expiry, now time.Time) bool {
	days := DaysUntilExpiry(expiry, now)
	for _, d := range notifyDays {
		if days == d {
			return true
		}
	}
	return false
}
