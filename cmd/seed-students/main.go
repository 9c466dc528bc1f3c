package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kasu/retention-backend/internal/config"
	"github.com/kasu/retention-backend/internal/database"
	"github.com/kasu/retention-backend/internal/logger"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/repository"
	"github.com/kasu/retention-backend/internal/risk"
	"github.com/kasu/retention-backend/internal/scoring"
	"github.com/kasu/retention-backend/internal/service"
)

type seedUser struct {
	username, email, department string
	role                        model.Role
	password                    string
}

var defaultUsers = []seedUser{
	{"admin", "admin@kasu.edu.ng", "", model.RoleAdmin, "admin123"},
	{"lecturer1", "lecturer1@kasu.edu.ng", "Computer Science", model.RoleLecturer, "lecturer123"},
}

var sampleStudents = []model.AssessRequest{
	{
		Name: "John Doe", StudentID: "KASU001", Course: "Computer Science",
		GPA: ptr(3.2), Attendance: ptr(85.5), Failures: ptr(1),
		Residence: "Urban", ParentalIncome: ptr(450000.0),
	},
	{
		Name: "Jane Smith", StudentID: "KASU002", Course: "Engineering",
		GPA: ptr(2.8), Attendance: ptr(72.0), Failures: ptr(2),
		Residence: "Rural", ParentalIncome: ptr(280000.0),
	},
}

var (
	firstNames = []string{"Aisha", "Musa", "Fatima", "Ibrahim", "Zainab", "Yusuf", "Hauwa", "Sani", "Amina", "Bello"}
	lastNames  = []string{"Abdullahi", "Bako", "Danjuma", "Garba", "Ibrahim", "Lawal", "Mohammed", "Suleiman", "Usman", "Yakubu"}
	courses    = []string{"Computer Science", "Engineering", "Mathematics", "Economics", "Biology", "Accounting"}
)

func main() {
	var randomCount int
	var seed uint64
	flag.IntVar(&randomCount, "random", 0, "Number of additional random students to assess")
	flag.Uint64Var(&seed, "seed", 1, "Seed for random student attributes")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	predictionRepo := repository.NewPredictionRepository(pool)

	provider := scoring.NewProvider(scoring.ProviderConfig{
		ModelPath:     cfg.ModelPath,
		RemoteURL:     cfg.ModelRemoteURL,
		RemoteTimeout: cfg.ModelRemoteTimeout,
	}, log)
	if _, err := provider.Load(); err != nil {
		log.Warn().Err(err).Msg("Model unavailable, seeding with demo scores")
	}

	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo, studentRepo, authService)
	assessmentService := service.NewAssessmentService(
		studentRepo,
		predictionRepo,
		risk.NewAssessor(risk.NewScorer(log)),
		provider,
		service.NewAlertService(rdb),
		rdb,
		log,
	)

	// ─── Users ─────────────────────────────────────────────────────────
	fmt.Println("=== Seeding Users ===")
	for _, u := range defaultUsers {
		created, err := userService.CreateUser(ctx, u.username, u.email, u.department, u.role, u.password)
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			fmt.Printf("User %s already exists, skipping\n", u.username)
		case err != nil:
			log.Fatal().Err(err).Str("username", u.username).Msg("Failed to create user")
		default:
			fmt.Printf("Created %s %s (ID: %d)\n", created.Role, created.Username, created.ID)
		}
	}

	// ─── Students ──────────────────────────────────────────────────────
	requests := append([]model.AssessRequest{}, sampleStudents...)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := 0; i < randomCount; i++ {
		requests = append(requests, randomStudent(rng, i+1))
	}

	fmt.Printf("=== Assessing %d Students ===\n", len(requests))
	successCount := 0
	for i := range requests {
		result, err := assessmentService.Assess(ctx, &requests[i])
		if err != nil {
			fmt.Printf("Error assessing %s (%s): %v\n", requests[i].Name, requests[i].StudentID, err)
			continue
		}
		successCount++
		fmt.Printf("%-10s %-20s %.3f %s\n",
			result.Student.StudentID, result.Student.Name,
			result.Prediction.RiskScore, result.Prediction.Tier)
	}

	fmt.Printf("\nSeed completed! Successfully assessed %d/%d students.\n", successCount, len(requests))
}

func randomStudent(rng *rand.Rand, n int) model.AssessRequest {
	residence := "Urban"
	if rng.IntN(2) == 0 {
		residence = "Rural"
	}
	return model.AssessRequest{
		Name:           firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))],
		StudentID:      fmt.Sprintf("KASU%04d", 100+n),
		Course:         courses[rng.IntN(len(courses))],
		GPA:            ptr(float64(rng.IntN(401)) / 100),
		Attendance:     ptr(40 + float64(rng.IntN(601))/10),
		Failures:       ptr(rng.IntN(5)),
		Residence:      residence,
		ParentalIncome: ptr(float64(50000 + rng.IntN(950000))),
		Age:            ptr(17 + rng.IntN(12)),
	}
}

func ptr[T any](v T) *T { return &v }
