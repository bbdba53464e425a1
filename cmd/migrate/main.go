package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"taskboard-chat/config"
	"taskboard-chat/internal/domain/chat"
	"taskboard-chat/internal/domain/message"
	"taskboard-chat/internal/domain/notification"
	"taskboard-chat/pkg/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const usage = `
Taskboard Chat - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Create or update the chat subsystem tables
  status      Show database connection status

The tool only touches the chat tables. Project, team and task tables
belong to the main application and are read-only to this service.
`

// Partial unique indexes enforce the one-chat-per-key invariants: at most
// one direct chat per user pair and one project chat per project. A racing
// second insert fails with a duplicate-key error and the caller re-reads.
var rawIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_chats_pair_key ON chats (pair_key) WHERE kind = 'DIRECT'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_chats_project_ref ON chats (project_ref) WHERE kind = 'PROJECT'`,
}

func main() {
	flag.Usage = func() { fmt.Print(usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	switch flag.Arg(0) {
	case "up":
		runMigrationsUp(db)
	case "status":
		showStatus(db)
	default:
		fmt.Printf("Unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(db *gorm.DB) {
	log.Println("Running migrations...")

	if err := db.AutoMigrate(
		&chat.Chat{},
		&chat.Member{},
		&message.Message{},
		&notification.Notification{},
	); err != nil {
		log.Fatalf("automigrate failed: %v", err)
	}

	for _, stmt := range rawIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			log.Fatalf("index creation failed: %v", err)
		}
	}

	log.Println("Migrations completed")
}

func showStatus(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("database handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	for _, table := range []string{"chats", "chat_members", "chat_messages", "notifications"} {
		if db.Migrator().HasTable(table) {
			var count int64
			db.Table(table).Count(&count)
			log.Printf("Table %-16s exists (%d rows)", table, count)
		} else {
			log.Printf("Table %-16s does not exist", table)
		}
	}
}
