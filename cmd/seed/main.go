package main

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"taskpilot/internal/auth"
	"taskpilot/internal/config"
	"taskpilot/internal/db"
	"taskpilot/internal/model"
	"taskpilot/internal/repository"
	"taskpilot/internal/service"
)

const (
	demoEmail    = "demo@taskpilot.local"
	demoUsername = "demo"
	demoPassword = "demo-password"
)

var demoTasks = []service.TaskCreate{
	{Title: "Buy groceries", Description: "Milk, eggs, bread", Priority: model.TaskPriorityLow},
	{Title: "Finish quarterly report", Priority: model.TaskPriorityHigh},
	{Title: "Book dentist appointment", Priority: model.TaskPriorityMedium},
	{Title: "Fix production alert noise", Description: "Silence the flapping disk check", Priority: model.TaskPriorityCritical},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Task{},
		&model.Conversation{},
		&model.Message{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	taskService := service.NewTaskService(taskRepo, nil)

	user, err := userRepo.FindByEmail(ctx, demoEmail)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to look up demo user: %v", err)
	}

	if user == nil {
		hashed, err := auth.HashPassword(demoPassword)
		if err != nil {
			log.Fatalf("Failed to hash demo password: %v", err)
		}
		user = &model.User{
			Email:        demoEmail,
			Username:     demoUsername,
			PasswordHash: hashed,
			Active:       true,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create demo user: %v", err)
		}
		log.Printf("Created demo user %s", demoEmail)
	} else {
		log.Printf("Demo user %s already exists", demoEmail)
	}

	_, total, err := taskService.List(ctx, user.ID, service.TaskListQuery{Limit: 1})
	if err != nil {
		log.Fatalf("Failed to list demo tasks: %v", err)
	}
	if total > 0 {
		log.Printf("Demo user already has %d task(s), skipping task seed", total)
		return
	}

	for _, input := range demoTasks {
		task, err := taskService.Create(ctx, user.ID, input)
		if err != nil {
			log.Fatalf("Failed to seed task %q: %v", input.Title, err)
		}
		log.Printf("Seeded task %q (%s)", task.Title, task.ID)
	}
	log.Printf("Seeded %d tasks for %s", len(demoTasks), demoEmail)
}
