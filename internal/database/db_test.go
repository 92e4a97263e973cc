package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omraut/carbon-terminal/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{
		DBUser: "terminal",
		DBPass: "s3cret",
		DBHost: "db.internal",
		DBPort: "3306",
		DBName: "carbon",
	}
	got := dsn(cfg)

	assert.Contains(t, got, "terminal:s3cret@tcp(db.internal:3306)/carbon")
	assert.Contains(t, got, "parseTime=true")
	assert.Contains(t, got, "charset=utf8mb4")
}

func TestDSN_EmptyPassword(t *testing.T) {
	cfg := config.Config{
		DBUser: "terminal",
		DBHost: "localhost",
		DBPort: "3306",
		DBName: "carbon",
	}
	got := dsn(cfg)
	assert.Contains(t, got, "terminal@tcp(localhost:3306)/carbon")
}
