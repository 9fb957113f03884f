// Seed creates a demo account with a few categories and todos. Run from project root: go run ./scripts/seed
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"todo-api/internal/apperr"
	"todo-api/internal/auth"
	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/models"
	"todo-api/internal/repository"

	"github.com/joho/godotenv"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "Orchard-Lantern-58"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Get()
	db := database.DB(ctx)
	if db == nil {
		fmt.Fprintln(os.Stderr, "DATABASE_URL not set or DB connection failed")
		os.Exit(1)
	}
	defer db.Close()

	if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL(), repository.NewTokenBlacklistRepo(db))
	accounts := auth.NewService(repository.NewUserRepo(db), tokens, cfg.BcryptCost)

	user, _, err := accounts.Register(ctx, auth.Registration{
		Email:           demoEmail,
		Username:        "demo",
		FirstName:       "Demo",
		LastName:        "User",
		Password:        demoPassword,
		PasswordConfirm: demoPassword,
	})
	if apperr.Is(err, apperr.KindConflict) {
		fmt.Println("Demo user exists; logging in")
		user, _, err = accounts.Login(ctx, demoEmail, demoPassword)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Demo user failed:", err)
		os.Exit(1)
	}

	categories := repository.NewCategoryRepo(db)
	catIDs := map[string]string{}
	for _, c := range []struct{ name, color string }{
		{"Work", "#EF4444"},
		{"Home", "#10B981"},
		{"Errands", "#F59E0B"},
	} {
		name, color := c.name, c.color
		cat, err := categories.Create(ctx, user.ID, models.CategoryInput{Name: &name, Color: &color})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Category", name, "skipped:", err)
			continue
		}
		catIDs[name] = cat.ID
	}

	todos := repository.NewTodoRepo(db)
	now := time.Now()
	tomorrow := now.Add(24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	seed := []models.TodoInput{
		{Name: "Write quarterly report", Priority: models.PriorityHigh, DueDate: &tomorrow, CategoryIDs: []string{catIDs["Work"]}},
		{Name: "Review pull requests", Priority: models.PriorityMedium, CategoryIDs: []string{catIDs["Work"]}},
		{Name: "Renew passport", Priority: models.PriorityHigh, DueDate: &yesterday, CategoryIDs: []string{catIDs["Errands"]}},
		{Name: "Water the plants", Priority: models.PriorityLow, Completed: true, CategoryIDs: []string{catIDs["Home"]}},
		{Name: "Plan weekend trip", Description: "Look at trains and hostels", Priority: models.PriorityLow},
	}
	start := time.Now()
	for _, in := range seed {
		if _, err := todos.Create(ctx, user.ID, in); err != nil {
			fmt.Fprintln(os.Stderr, "Insert failed:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Done: %d todos for %s (password %q) in %v\n", len(seed), demoEmail, demoPassword, time.Since(start))
}
