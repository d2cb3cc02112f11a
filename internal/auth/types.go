package auth

import "time"

// User представляет учетную запись в системе.
// Пользователи создаются через bootstrap (администратор по умолчанию)
// или регистрацию и никогда не удаляются.
type User struct {
	ID                 string    `json:"id"`                   // UUID пользователя, неизменяемый
	Username           string    `json:"username"`             // уникальный username (case-sensitive)
	Email              string    `json:"email"`                // уникальный email
	PasswordHash       string    `json:"password_hash"`        // bcrypt хеш (пароль + соль)
	Salt               string    `json:"salt"`                 // персональная соль, ротируется при каждой смене пароля
	SecurityQuestion   string    `json:"security_question"`    // секретный вопрос (свободный текст)
	SecurityAnswerHash string    `json:"security_answer_hash"` // хеш ответа, та же соль что у пароля
	IsFirstLogin       bool      `json:"is_first_login"`       // true до обязательной смены пароля
	IsLocked           bool      `json:"is_locked"`            // флаг блокировки (advisory, см. lockout.go)
	LockUntil          int64     `json:"lock_until,omitempty"` // unix millis, 0 = не заблокирован
	FailedAttempts     int       `json:"failed_attempts"`      // счетчик неудачных попыток входа
	LastLogin          time.Time `json:"last_login,omitzero"`  // время последнего успешного входа
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PublicUser - представление пользователя без секретных полей,
// для списков и отображения
type PublicUser struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	SecurityQuestion string    `json:"security_question"`
	IsFirstLogin     bool      `json:"is_first_login"`
	IsLocked         bool      `json:"is_locked"`
	LockUntil        int64     `json:"lock_until,omitempty"`
	FailedAttempts   int       `json:"failed_attempts"`
	LastLogin        time.Time `json:"last_login,omitzero"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Public возвращает представление пользователя без секретных полей
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		SecurityQuestion: u.SecurityQuestion,
		IsFirstLogin:     u.IsFirstLogin,
		IsLocked:         u.IsLocked,
		LockUntil:        u.LockUntil,
		FailedAttempts:   u.FailedAttempts,
		LastLogin:        u.LastLogin,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// LoginAttempt - неизменяемая запись аудита попытки входа.
// Журнал append-only: записи никогда не изменяются, удаляются только
// явной операцией prune по сроку хранения.
type LoginAttempt struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"` // как введен (после санитизации)
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	IPAddress string    `json:"ip_address"` // best-effort, по умолчанию "unknown"
	UserAgent string    `json:"user_agent,omitempty"`
}

// PasswordResetToken - одноразовый, ограниченный по времени токен
// восстановления пароля. Флаг used монотонный: false -> true.
type PasswordResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginCredentials - данные для входа
type LoginCredentials struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	IPAddress string `json:"ip_address,omitempty"` // для журнала попыток
	UserAgent string `json:"user_agent,omitempty"`
}

// RegisterData - данные регистрации нового пользователя
type RegisterData struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ConfirmPassword  string `json:"confirm_password"`
	SecurityQuestion string `json:"security_question"`
	SecurityAnswer   string `json:"security_answer"`
}

// PasswordChangeData - данные смены пароля
type PasswordChangeData struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// RecoveryData - данные восстановления пароля по секретному вопросу
type RecoveryData struct {
	Username        string `json:"username"`
	SecurityAnswer  string `json:"security_answer"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Result - результат операции сервиса. Ошибки никогда не пробрасываются
// наружу как error: любой исход сворачивается в пару success/message.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginResult - результат операции входа
type LoginResult struct {
	Result
	User                   *PublicUser `json:"user,omitempty"`
	RequiresPasswordChange bool        `json:"requires_password_change,omitempty"`
}
