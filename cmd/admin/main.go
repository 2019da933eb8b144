// Command admin is the operator CLI for the complaint portal database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cipelem/pengaduan-server/internal/config"
	"github.com/cipelem/pengaduan-server/internal/database"
	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/services"
	"github.com/cipelem/pengaduan-server/internal/store"
	"go.uber.org/zap"
)

// defaultCategories is the taxonomy a new village starts with
var defaultCategories = []services.CategoryInput{
	{Name: "Infrastruktur Jalan", Description: "Laporan kerusakan jalan, jembatan, atau drainase.", Icon: "HardHat", Color: "bg-emerald-500"},
	{Name: "Administrasi Desa", Description: "Kendala pelayanan surat menyurat, KTP, atau KK.", Icon: "FileText", Color: "bg-blue-500"},
	{Name: "Kebersihan", Description: "Masalah sampah menumpuk atau lingkungan kumuh.", Icon: "Trash2", Color: "bg-orange-500"},
	{Name: "Keamanan", Description: "Gangguan ketertiban umum atau poskamling.", Icon: "ShieldAlert", Color: "bg-red-500"},
	{Name: "Kesehatan", Description: "Layanan Posyandu, Puskesmas, atau wabah penyakit.", Icon: "HeartPulse", Color: "bg-pink-500"},
	{Name: "Sosial", Description: "Bantuan sosial (Bansos) atau kemiskinan.", Icon: "Users", Color: "bg-purple-500"},
}

var operator = models.Actor{Role: models.RoleAdmin, Name: "operator"}

func main() {
	if len(os.Args) < 2 || !validArgs(os.Args[1], os.Args[2:]) {
		usage()
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	sugar := logger.Sugar()

	if err := run(sugar, os.Args[1], os.Args[2:]); err != nil {
		sugar.Fatalw("Command failed", "command", os.Args[1], "error", err)
	}
}

// run executes one command. It returns instead of exiting so that the pool
// and the context are released before main reports the error.
func run(sugar *zap.SugaredLogger, command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPool(ctx, cfg.DatabaseURL, database.DefaultPoolOptions)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	st := database.NewPostgresStore(db)

	switch command {
	case "migrate":
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		sugar.Info("Schema is up to date")
	case "seed-categories":
		created, err := seedCategories(ctx, services.NewCategoryService(st, sugar), sugar)
		if err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		sugar.Infow("Categories seeded", "created", created)
	case "create-admin":
		auth := services.NewAuthService(st, cfg.JWTSecret, cfg.JWTTTL, cfg.StaffSecretCode, sugar)
		users := services.NewUserService(st, auth, sugar)
		u, err := users.Bootstrap(ctx, services.CreateUserInput{
			Email:    args[0],
			FullName: args[1],
			Password: args[2],
		})
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		sugar.Infow("Admin created", "id", u.ID, "email", u.Email)
	case "list-tickets":
		criteria := lifecycle.Criteria{Status: lifecycle.StatusAll}
		if len(args) > 0 {
			criteria.Status = args[0]
		}
		if err := listTickets(ctx, st, criteria); err != nil {
			return fmt.Errorf("list tickets: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func validArgs(command string, args []string) bool {
	switch command {
	case "migrate", "seed-categories":
		return len(args) == 0
	case "create-admin":
		return len(args) == 3
	case "list-tickets":
		return len(args) <= 1
	}
	return false
}

func usage() {
	fmt.Println("Usage: admin <migrate | seed-categories | create-admin <email> <full_name> <password> | list-tickets [status]>")
	os.Exit(1)
}

// seedCategories creates the default categories, skipping those already present
func seedCategories(ctx context.Context, svc *services.CategoryService, sugar *zap.SugaredLogger) (int, error) {
	created := 0
	for _, in := range defaultCategories {
		_, err := svc.Create(ctx, operator, in)
		if lifecycle.KindOf(err) == lifecycle.KindValidation {
			sugar.Infow("Skipping category", "name", in.Name, "reason", err)
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func listTickets(ctx context.Context, st store.ComplaintStore, criteria lifecycle.Criteria) error {
	if err := criteria.Validate(); err != nil {
		return err
	}
	all, err := st.ListComplaints(ctx)
	if err != nil {
		return err
	}
	for _, c := range lifecycle.Filter(all, criteria) {
		fmt.Printf("%-20s %-12s %-8s v%-3d %s\n", c.TicketID, c.Status, c.Priority, c.Version, c.Title)
	}
	return nil
}
