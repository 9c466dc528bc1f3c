package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/kasu/retention-backend/internal/config"
	"github.com/kasu/retention-backend/internal/database"
	"github.com/kasu/retention-backend/internal/logger"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/repository"
	"github.com/kasu/retention-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Password hashing does not touch Redis.
	authService := service.NewAuthService(cfg, nil)
	userService := service.NewUserService(
		repository.NewUserRepository(pool),
		repository.NewStudentRepository(pool),
		authService,
	)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Staff Account ===")

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		fmt.Println("Error: Username must be at least 3 characters")
		return
	}

	fmt.Print("Enter Email (optional): ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	fmt.Print("Enter Role [admin/advisor/lecturer] (default admin): ")
	roleStr, _ := reader.ReadString('\n')
	role := model.Role(strings.ToLower(strings.TrimSpace(roleStr)))
	if role == "" {
		role = model.RoleAdmin
	}
	if !role.IsStaff() {
		fmt.Println("Error: Role must be admin, advisor or lecturer")
		return
	}

	fmt.Print("Enter Department (optional): ")
	department, _ := reader.ReadString('\n')
	department = strings.TrimSpace(department)
	if department == "" && role == model.RoleLecturer {
		department = model.DefaultDepartment
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := userService.CreateUser(ctx, username, email, department, role, password)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			fmt.Printf("Error: Username '%s' is already taken\n", username)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! %s '%s' created with ID: %d\n", user.Role, user.Username, user.ID)
}
