package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// dbType is set by Connect: "sqlite" or "postgres".
var dbType string

// Connect establishes a connection to the database. DB_TYPE selects the
// backend (default sqlite); postgres reads DATABASE_URL.
func Connect() error {
	dbType = os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	var db *sqlx.DB
	var err error

	switch dbType {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
	case "sqlite":
		// Create data directory if it doesn't exist
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}

		dbPath := filepath.Join(dataDir, "recallbot.db")
		db, err = sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}

		// Enable foreign keys
		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %v", err)
		}

		// Set connection pool settings
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", dbType)
	}

	DB = db

	// Initialize schema
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// IsSQLite reports whether the active backend is SQLite.
func IsSQLite() bool {
	return dbType != "postgres"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS learners (
			id TEXT PRIMARY KEY,
			telegram_chat_id INTEGER UNIQUE,
			username TEXT,
			notification_enabled BOOLEAN DEFAULT true,
			notification_hour INTEGER DEFAULT 9,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS subjects (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL UNIQUE,
			description TEXT DEFAULT '',
			image_url TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lessons (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			position INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (subject_id) REFERENCES subjects(id),
			UNIQUE(subject_id, title)
		)`,
		`CREATE TABLE IF NOT EXISTS topics (
			id TEXT PRIMARY KEY,
			lesson_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (lesson_id) REFERENCES lessons(id),
			UNIQUE(lesson_id, title)
		)`,
		`CREATE TABLE IF NOT EXISTS review_items (
			learner_id TEXT NOT NULL,
			topic_id TEXT NOT NULL,
			due_at TIMESTAMP NOT NULL,
			interval_days INTEGER NOT NULL DEFAULT 1,
			ease_factor REAL NOT NULL DEFAULT 2.5,
			repetitions INTEGER NOT NULL DEFAULT 0,
			lapses INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (learner_id, topic_id),
			FOREIGN KEY (learner_id) REFERENCES learners(id),
			FOREIGN KEY (topic_id) REFERENCES topics(id)
		)`,
		`CREATE TABLE IF NOT EXISTS session_results (
			session_id TEXT PRIMARY KEY,
			learner_id TEXT NOT NULL,
			total_items INTEGER NOT NULL,
			correct_count INTEGER NOT NULL,
			percentage REAL NOT NULL,
			lapses INTEGER NOT NULL,
			completed_at TIMESTAMP NOT NULL,
			FOREIGN KEY (learner_id) REFERENCES learners(id)
		)`,
		`CREATE TABLE IF NOT EXISTS learner_stats (
			learner_id TEXT PRIMARY KEY,
			streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_review_day TIMESTAMP,
			sessions_completed INTEGER NOT NULL DEFAULT 0,
			items_reviewed INTEGER NOT NULL DEFAULT 0,
			total_lapses INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (learner_id) REFERENCES learners(id)
		)`,
		`CREATE TABLE IF NOT EXISTS learner_badges (
			learner_id TEXT NOT NULL,
			badge TEXT NOT NULL,
			awarded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (learner_id, badge),
			FOREIGN KEY (learner_id) REFERENCES learners(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_items_due ON review_items(learner_id, due_at)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %v", err)
		}
	}
	return nil
}
