package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/iudanet/fleetdocs/internal/config"
	"github.com/iudanet/fleetdocs/internal/crypto"
	"github.com/iudanet/fleetdocs/internal/validation"
)

// Сообщения результатов. Для входа сообщение намеренно одинаковое
// для неизвестного пользователя и неверного пароля, чтобы нельзя было
// перебором выяснить существующие username.
const (
	msgInvalidLogin    = "invalid login or password"
	msgLoginSuccess    = "login successful"
	msgInternalError   = "internal server error"
	msgFieldsRequired  = "all fields are required"
	msgPasswordsDiffer = "passwords do not match"
	msgResetEmailSent  = "if the email exists, a recovery link has been sent"
)

// Service оркестрирует операции аутентификации поверх Store,
// применяя политику блокировки и утилиты хеширования.
// Собственного состояния не держит: все чтения и изменения идут через Store.
//
// Ошибки не пробрасываются наружу: каждая операция сворачивает любой
// внутренний сбой в Result{Success: false} с общим сообщением.
type Service struct {
	cfg   config.Config
	store *Store
	now   func() time.Time // подменяется в тестах
}

// NewService создает новый сервис аутентификации
func NewService(cfg config.Config, store *Store) *Service {
	return &Service{
		cfg:   cfg,
		store: store,
		now:   time.Now,
	}
}

// isDefaultCredentials проверяет, совпадают ли креды с администратором
// по умолчанию (bootstrap)
func (s *Service) isDefaultCredentials(username, password string) bool {
	return username == s.cfg.AdminUsername && password == s.cfg.AdminPassword
}

func fail(message string) Result {
	return Result{Success: false, Message: message}
}

func ok(message string) Result {
	return Result{Success: true, Message: message}
}

// Login выполняет вход пользователя. Попытка записывается в журнал
// независимо от исхода; флаг success выставляется только после
// прохождения всех проверок.
func (s *Service) Login(ctx context.Context, creds LoginCredentials) LoginResult {
	username := validation.SanitizeInput(creds.Username)
	now := s.now()

	ip := creds.IPAddress
	if ip == "" {
		ip = "unknown"
	}
	attempt := LoginAttempt{
		ID:        crypto.NewID(),
		Username:  username,
		Success:   false,
		Timestamp: now,
		IPAddress: ip,
		UserAgent: creds.UserAgent,
	}

	var result LoginResult
	err := s.store.Update(ctx, func(st *State) error {
		// Журналируем попытку при любом исходе
		defer func() {
			st.Attempts = append(st.Attempts, attempt)
		}()

		user := st.FindUserByUsername(username)
		if user == nil {
			result = LoginResult{Result: fail(msgInvalidLogin)}
			return nil
		}

		if IsAccountLocked(user, now) {
			remaining := LockTimeRemaining(user, now)
			result = LoginResult{Result: fail(fmt.Sprintf(
				"account locked, try again in %d minutes", remaining))}
			return nil
		}

		// Креды по умолчанию принимаются только до первой смены пароля.
		// После нее действует исключительно сохраненный хеш.
		isDefaultLogin := user.IsFirstLogin && s.isDefaultCredentials(username, creds.Password)

		validPassword := isDefaultLogin ||
			crypto.VerifyPassword(creds.Password, user.PasswordHash, user.Salt)

		if !validPassword {
			user.FailedAttempts++
			if user.FailedAttempts >= s.cfg.MaxFailedAttempts {
				user.IsLocked = true
				user.LockUntil = now.Add(s.cfg.LockoutDuration).UnixMilli()
			}
			user.UpdatedAt = now
			result = LoginResult{Result: fail(msgInvalidLogin)}
			return nil
		}

		// Успешный вход сбрасывает счетчик и блокировку
		user.FailedAttempts = 0
		user.IsLocked = false
		user.LockUntil = 0
		user.LastLogin = now
		user.UpdatedAt = now

		token, err := GenerateSessionToken(
			[]byte(s.cfg.Secret), s.cfg.SessionDuration, user.ID)
		if err != nil {
			return fmt.Errorf("failed to generate session token: %w", err)
		}
		st.Session = token

		attempt.Success = true
		pub := user.Public()
		result = LoginResult{
			Result:                 ok(msgLoginSuccess),
			User:                   &pub,
			RequiresPasswordChange: isDefaultLogin || user.IsFirstLogin,
		}
		return nil
	})
	if err != nil {
		slog.Error("login failed", "error", err)
		return LoginResult{Result: fail(msgInternalError)}
	}

	return result
}

// Register регистрирует нового пользователя.
// Username и email уникальны (точное совпадение), пароль проверяется
// на силу, ответ на секретный вопрос хешируется той же солью что и пароль,
// в нижнем регистре.
func (s *Service) Register(ctx context.Context, data RegisterData) Result {
	username := validation.SanitizeInput(data.Username)
	email := validation.SanitizeInput(data.Email)

	if username == "" || email == "" || data.Password == "" ||
		data.SecurityQuestion == "" || data.SecurityAnswer == "" {
		return fail(msgFieldsRequired)
	}

	if data.Password != data.ConfirmPassword {
		return fail(msgPasswordsDiffer)
	}

	if valid, errs := validation.ValidatePasswordStrength(
		data.Password, s.cfg.PasswordMinLength); !valid {
		return fail(strings.Join(errs, ". "))
	}

	if !validation.ValidateEmail(email) {
		return fail("invalid email")
	}

	var result Result
	err := s.store.Update(ctx, func(st *State) error {
		if st.FindUserByUsername(username) != nil {
			result = fail("username already exists")
			return nil
		}
		if st.FindUserByEmail(email) != nil {
			result = fail("email already registered")
			return nil
		}

		hash, salt, err := crypto.HashPassword(data.Password, "", s.cfg.HashCost)
		if err != nil {
			return err
		}
		answerHash, _, err := crypto.HashPassword(
			strings.ToLower(data.SecurityAnswer), salt, s.cfg.HashCost)
		if err != nil {
			return err
		}

		now := s.now()
		st.Users = append(st.Users, User{
			ID:                 crypto.NewID(),
			Username:           username,
			Email:              email,
			PasswordHash:       hash,
			Salt:               salt,
			SecurityQuestion:   data.SecurityQuestion,
			SecurityAnswerHash: answerHash,
			IsFirstLogin:       false,
			IsLocked:           false,
			FailedAttempts:     0,
			CreatedAt:          now,
			UpdatedAt:          now,
		})

		result = ok("user registered successfully")
		return nil
	})
	if err != nil {
		slog.Error("registration failed", "error", err)
		return fail(msgInternalError)
	}

	return result
}

// ChangePassword меняет пароль пользователя. Проверка текущего пароля
// пропускается только при первом входе с кредами по умолчанию.
// Соль ротируется при каждой смене пароля.
func (s *Service) ChangePassword(ctx context.Context, userID string, data PasswordChangeData) Result {
	var result Result
	err := s.store.Update(ctx, func(st *State) error {
		user := st.FindUserByID(userID)
		if user == nil {
			result = fail("user not found")
			return nil
		}

		firstTimeChange := user.IsFirstLogin &&
			s.isDefaultCredentials(user.Username, data.CurrentPassword)

		if !firstTimeChange {
			if !crypto.VerifyPassword(data.CurrentPassword, user.PasswordHash, user.Salt) {
				result = fail("current password is incorrect")
				return nil
			}
		}

		if data.NewPassword != data.ConfirmPassword {
			result = fail("new passwords do not match")
			return nil
		}

		if valid, errs := validation.ValidatePasswordStrength(
			data.NewPassword, s.cfg.PasswordMinLength); !valid {
			result = fail(strings.Join(errs, ". "))
			return nil
		}

		// Свежая соль при каждой смене
		hash, salt, err := crypto.HashPassword(data.NewPassword, "", s.cfg.HashCost)
		if err != nil {
			return err
		}

		user.PasswordHash = hash
		user.Salt = salt
		user.IsFirstLogin = false
		user.UpdatedAt = s.now()

		result = ok("password changed successfully")
		return nil
	})
	if err != nil {
		slog.Error("password change failed", "error", err)
		return fail(msgInternalError)
	}

	return result
}

// RecoverPasswordWithSecurityQuestion восстанавливает пароль по ответу
// на секретный вопрос. Счетчик неудачных попыток входа и блокировка
// этим путем не сбрасываются.
func (s *Service) RecoverPasswordWithSecurityQuestion(ctx context.Context, data RecoveryData) Result {
	if data.Username == "" || data.SecurityAnswer == "" ||
		data.NewPassword == "" || data.ConfirmPassword == "" {
		return fail(msgFieldsRequired)
	}

	username := validation.SanitizeInput(data.Username)

	var result Result
	err := s.store.Update(ctx, func(st *State) error {
		user := st.FindUserByUsername(username)
		if user == nil {
			result = fail("user not found")
			return nil
		}

		if !crypto.VerifyPassword(
			strings.ToLower(data.SecurityAnswer), user.SecurityAnswerHash, user.Salt) {
			result = fail("security answer is incorrect")
			return nil
		}

		if data.NewPassword != data.ConfirmPassword {
			result = fail(msgPasswordsDiffer)
			return nil
		}

		if valid, errs := validation.ValidatePasswordStrength(
			data.NewPassword, s.cfg.PasswordMinLength); !valid {
			result = fail(strings.Join(errs, ". "))
			return nil
		}

		hash, salt, err := crypto.HashPassword(data.NewPassword, "", s.cfg.HashCost)
		if err != nil {
			return err
		}

		user.PasswordHash = hash
		user.Salt = salt
		user.UpdatedAt = s.now()

		result = ok("password recovered successfully")
		return nil
	})
	if err != nil {
		slog.Error("password recovery failed", "error", err)
		return fail(msgInternalError)
	}

	return result
}

// SendPasswordResetEmail создает одноразовый токен восстановления
// и эмитит ссылку в лог (реальная отправка почты вне объема системы).
// Для несуществующего email возвращается тот же успешный ответ,
// чтобы нельзя было перебором выяснить зарегистрированные адреса.
func (s *Service) SendPasswordResetEmail(ctx context.Context, email string) Result {
	sanitized := validation.SanitizeInput(email)

	var result Result
	err := s.store.Update(ctx, func(st *State) error {
		user := st.FindUserByEmail(sanitized)
		if user == nil {
			result = ok(msgResetEmailSent)
			return nil
		}

		token, err := crypto.GenerateResetToken()
		if err != nil {
			return err
		}

		now := s.now()
		st.ResetTokens = append(st.ResetTokens, PasswordResetToken{
			ID:        crypto.NewID(),
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: now.Add(s.cfg.ResetTokenDuration),
			Used:      false,
			CreatedAt: now,
		})

		// Симуляция письма: ссылка уходит в лог
		slog.Info("password recovery link (simulated)",
			"url", "/reset-password?token="+token)

		result = ok(msgResetEmailSent)
		return nil
	})
	if err != nil {
		slog.Error("reset email failed", "error", err)
		return fail(msgInternalError)
	}

	return result
}

// ResetPasswordWithToken восстанавливает пароль по одноразовому токену.
// Использованный токен помечается и больше не принимается (монотонно).
func (s *Service) ResetPasswordWithToken(ctx context.Context, token, newPassword string) Result {
	var result Result
	err := s.store.Update(ctx, func(st *State) error {
		resetToken := st.FindResetToken(token)
		if resetToken == nil {
			result = fail("invalid or expired token")
			return nil
		}

		if s.now().After(resetToken.ExpiresAt) {
			result = fail("token expired")
			return nil
		}

		user := st.FindUserByID(resetToken.UserID)
		if user == nil {
			result = fail("user not found")
			return nil
		}

		if valid, errs := validation.ValidatePasswordStrength(
			newPassword, s.cfg.PasswordMinLength); !valid {
			result = fail(strings.Join(errs, ". "))
			return nil
		}

		hash, salt, err := crypto.HashPassword(newPassword, "", s.cfg.HashCost)
		if err != nil {
			return err
		}

		user.PasswordHash = hash
		user.Salt = salt
		user.UpdatedAt = s.now()
		resetToken.Used = true

		result = ok("password reset successfully")
		return nil
	})
	if err != nil {
		slog.Error("password reset failed", "error", err)
		return fail(msgInternalError)
	}

	return result
}

// CurrentUser возвращает пользователя текущей сессии или nil.
// Невалидный (истекший, подделанный) токен трактуется как неявный
// logout: сессия очищается.
func (s *Service) CurrentUser(ctx context.Context) *User {
	var session string
	if err := s.store.View(ctx, func(st *State) error {
		session = st.Session
		return nil
	}); err != nil {
		return nil
	}

	if session == "" {
		return nil
	}

	claims := VerifySessionToken([]byte(s.cfg.Secret), session)
	if claims == nil {
		if err := s.Logout(ctx); err != nil {
			slog.Error("failed to clear stale session", "error", err)
		}
		return nil
	}

	var user *User
	_ = s.store.View(ctx, func(st *State) error {
		if found := st.FindUserByID(claims.UserID); found != nil {
			copied := *found
			user = &copied
		}
		return nil
	})

	return user
}

// Logout очищает текущую сессию. Записи пользователей не затрагиваются.
// Повторный вызов - no-op.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Update(ctx, func(st *State) error {
		st.Session = ""
		return nil
	})
}

// LoginAttempts возвращает журнал попыток входа, новые первыми.
// limit <= 0 означает значение по умолчанию (50).
func (s *Service) LoginAttempts(ctx context.Context, limit int) []LoginAttempt {
	if limit <= 0 {
		limit = 50
	}

	var attempts []LoginAttempt
	_ = s.store.View(ctx, func(st *State) error {
		attempts = make([]LoginAttempt, len(st.Attempts))
		copy(attempts, st.Attempts)
		return nil
	})

	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].Timestamp.After(attempts[j].Timestamp)
	})

	if len(attempts) > limit {
		attempts = attempts[:limit]
	}
	return attempts
}

// Users возвращает список пользователей без секретных полей
func (s *Service) Users(ctx context.Context) []PublicUser {
	var users []PublicUser
	_ = s.store.View(ctx, func(st *State) error {
		users = make([]PublicUser, 0, len(st.Users))
		for i := range st.Users {
			users = append(users, st.Users[i].Public())
		}
		return nil
	})
	return users
}

// Prune применяет политику хранения: удаляет записи журнала старше
// срока хранения и использованные/истекшие reset токены.
// Запускается только явно, фоновой уборки нет.
func (s *Service) Prune(ctx context.Context) (attemptsRemoved, tokensRemoved int, err error) {
	now := s.now()

	attemptsRemoved, err = s.store.PruneLoginAttempts(ctx, now.Add(-s.cfg.AttemptRetention))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prune login attempts: %w", err)
	}

	tokensRemoved, err = s.store.PruneResetTokens(ctx, now)
	if err != nil {
		return attemptsRemoved, 0, fmt.Errorf("failed to prune reset tokens: %w", err)
	}

	return attemptsRemoved, tokensRemoved, nil
}
