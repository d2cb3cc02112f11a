package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/iudanet/fleetdocs/internal/auth"
)

// Cli связывает команды терминала с сервисом аутентификации
type Cli struct {
	svc *auth.Service
	io  IO
}

// New создает новый Cli
func New(svc *auth.Service, io IO) *Cli {
	return &Cli{svc: svc, io: io}
}

// Run выполняет команду. Ошибку получает main и решает, как завершаться.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.runLogin(ctx)
	case "register":
		return c.runRegister(ctx)
	case "change-password":
		return c.runChangePassword(ctx)
	case "recover":
		return c.runRecover(ctx)
	case "forgot":
		return c.runForgot(ctx)
	case "reset":
		return c.runReset(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "attempts":
		return c.runAttempts(ctx, args)
	case "users":
		return c.runUsers(ctx)
	case "prune":
		return c.runPrune(ctx)
	default:
		c.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// PrintUsage выводит справку по командам
func (c *Cli) PrintUsage() {
	c.io.Println("Usage: fleetdocs [flags] <command>")
	c.io.Println("")
	c.io.Println("Commands:")
	c.io.Println("  login            Sign in")
	c.io.Println("  logout           Sign out")
	c.io.Println("  whoami           Show current user")
	c.io.Println("  register         Register a new user")
	c.io.Println("  change-password  Change the current user's password")
	c.io.Println("  recover          Recover password via security question")
	c.io.Println("  forgot           Request a password reset link (simulated email)")
	c.io.Println("  reset            Reset password with a recovery token")
	c.io.Println("  attempts [n]     Show recent login attempts")
	c.io.Println("  users            List users")
	c.io.Println("  prune            Apply retention policy to audit log and tokens")
}

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	result := c.svc.Login(ctx, auth.LoginCredentials{
		Username: username,
		Password: password,
	})
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	c.io.Printf("✓ %s\n", result.Message)

	if result.RequiresPasswordChange {
		// Обязательная смена пароля до полноценного доступа
		c.io.Println("")
		c.io.Println("Password change required before continuing.")
		return c.changePasswordFor(ctx, result.User.ID)
	}
	return nil
}

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Register ===")

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return err
	}
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return err
	}
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return err
	}
	question, err := c.io.ReadInput("Security question: ")
	if err != nil {
		return err
	}
	answer, err := c.io.ReadInput("Security answer: ")
	if err != nil {
		return err
	}

	result := c.svc.Register(ctx, auth.RegisterData{
		Username:         username,
		Email:            email,
		Password:         password,
		ConfirmPassword:  confirm,
		SecurityQuestion: question,
		SecurityAnswer:   answer,
	})
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	c.io.Printf("✓ %s\n", result.Message)
	return nil
}

func (c *Cli) runChangePassword(ctx context.Context) error {
	user := c.svc.CurrentUser(ctx)
	if user == nil {
		return fmt.Errorf("not logged in")
	}
	return c.changePasswordFor(ctx, user.ID)
}

func (c *Cli) changePasswordFor(ctx context.Context, userID string) error {
	c.io.Println("=== Change password ===")

	current, err := c.io.ReadPassword("Current password: ")
	if err != nil {
		return err
	}
	newPassword, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := c.io.ReadPassword("Confirm new password: ")
	if err != nil {
		return err
	}

	result := c.svc.ChangePassword(ctx, userID, auth.PasswordChangeData{
		CurrentPassword: current,
		NewPassword:     newPassword,
		ConfirmPassword: confirm,
	})
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	c.io.Printf("✓ %s\n", result.Message)
	return nil
}

func (c *Cli) runRecover(ctx context.Context) error {
	c.io.Println("=== Password recovery (security question) ===")

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return err
	}
	answer, err := c.io.ReadInput("Security answer: ")
	if err != nil {
		return err
	}
	newPassword, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := c.io.ReadPassword("Confirm new password: ")
	if err != nil {
		return err
	}

	result := c.svc.RecoverPasswordWithSecurityQuestion(ctx, auth.RecoveryData{
		Username:        username,
		SecurityAnswer:  answer,
		NewPassword:     newPassword,
		ConfirmPassword: confirm,
	})
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	c.io.Printf("✓ %s\n", result.Message)
	return nil
}

func (c *Cli) runForgot(ctx context.Context) error {
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return err
	}

	result := c.svc.SendPasswordResetEmail(ctx, email)
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	// Ссылка уходит в лог, повторяем сообщение пользователю
	c.io.Printf("✓ %s\n", result.Message)
	return nil
}

func (c *Cli) runReset(ctx context.Context) error {
	token, err := c.io.ReadInput("Recovery token: ")
	if err != nil {
		return err
	}
	newPassword, err := c.io.ReadPassword("New password: ")
	if err != nil {
		return err
	}

	result := c.svc.ResetPasswordWithToken(ctx, token, newPassword)
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	c.io.Printf("✓ %s\n", result.Message)
	return nil
}

func (c *Cli) runWhoami(ctx context.Context) error {
	user := c.svc.CurrentUser(ctx)
	if user == nil {
		c.io.Println("Not logged in")
		return nil
	}

	c.io.Printf("Username:    %s\n", user.Username)
	c.io.Printf("Email:       %s\n", user.Email)
	if !user.LastLogin.IsZero() {
		c.io.Printf("Last login:  %s\n", user.LastLogin.Format(time.RFC3339))
	}
	if user.IsFirstLogin {
		c.io.Println("Password change required")
	}
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.svc.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	c.io.Println("✓ Logged out")
	return nil
}

func (c *Cli) runAttempts(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = parsed
	}

	attempts := c.svc.LoginAttempts(ctx, limit)
	if len(attempts) == 0 {
		c.io.Println("No login attempts recorded")
		return nil
	}

	for _, a := range attempts {
		status := "FAIL"
		if a.Success {
			status = "OK"
		}
		c.io.Printf("%s  %-4s  %-20s  %s\n",
			a.Timestamp.Format(time.RFC3339), status, a.Username, a.IPAddress)
	}
	return nil
}

func (c *Cli) runUsers(ctx context.Context) error {
	users := c.svc.Users(ctx)
	for _, u := range users {
		state := ""
		if u.IsLocked {
			state = " [locked]"
		}
		if u.IsFirstLogin {
			state += " [must change password]"
		}
		c.io.Printf("%-20s  %-30s  failed=%d%s\n",
			u.Username, u.Email, u.FailedAttempts, state)
	}
	return nil
}

func (c *Cli) runPrune(ctx context.Context) error {
	attempts, tokens, err := c.svc.Prune(ctx)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	c.io.Printf("Removed %d login attempts and %d reset tokens\n", attempts, tokens)
	return nil
}
