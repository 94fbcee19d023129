package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"

	"github.com/vncsmyrnk/blindpoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/blindpoll/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("a migration name is required.")
	}
	migrationName := os.Args[1]

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	p := cfg.Postgres
	db, err := postgres.Open(context.Background(), postgres.ConnString(p.Host, p.Port, p.User, p.Password, p.DB))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	basePath := filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")
	fileContent, err := migrationFileContent(basePath, migrationName)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := db.Exec(string(fileContent)); err != nil {
		log.Fatalf("Failed to execute SQL file: %v", err)
	}

	fmt.Println("Migration file executed successfully.")
}

func migrationFileContent(basePath string, migrationName string) ([]byte, error) {
	fileName, err := migrationFileName(basePath, migrationName)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(basePath, fileName))
}

// migrationFileName finds the file ending in <name>.sql, e.g. "up" or
// "create_ballot_namespaces.down".
func migrationFileName(basePath string, migrationName string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return "", err
	}

	files, err := os.ReadDir(basePath)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if !f.IsDir() && regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}
	return "", fmt.Errorf("migration file %q not found in %s", migrationName, basePath)
}
