package auth

import "time"

// Политика блокировки - чистые функции от (user, now).
// Флаг IsLocked advisory: истекшая блокировка перестает действовать сама,
// без фонового сброса. Каждая проверка заново выводит состояние из
// (IsLocked, LockUntil, now), поэтому кешированное и вычисленное
// состояние не расходятся.

// IsAccountLocked сообщает, заблокирована ли учетная запись в данный момент.
// Функция ничего не изменяет: сброс счетчиков происходит только при
// успешном входе.
func IsAccountLocked(u *User, now time.Time) bool {
	if !u.IsLocked || u.LockUntil == 0 {
		return false
	}

	// Срок блокировки истек - разблокирована автоматически
	if now.UnixMilli() > u.LockUntil {
		return false
	}

	return true
}

// LockTimeRemaining возвращает оставшееся время блокировки в минутах,
// округленное вверх. 0 если учетная запись не заблокирована.
func LockTimeRemaining(u *User, now time.Time) int {
	if !u.IsLocked || u.LockUntil == 0 {
		return 0
	}

	remaining := u.LockUntil - now.UnixMilli()
	if remaining <= 0 {
		return 0
	}

	const minuteMillis = 60 * 1000
	return int((remaining + minuteMillis - 1) / minuteMillis)
}
