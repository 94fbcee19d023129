package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/adapters/authority/rest"
	"github.com/vncsmyrnk/blindpoll/internal/core/services"
	"github.com/vncsmyrnk/blindpoll/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var authorityURL, token, logLevel string
	var questionID int64
	var timeout time.Duration

	flag.StringVar(&authorityURL, "authority", os.Getenv("AUTHORITY_URL"), "Ballot authority base URL")
	flag.StringVar(&token, "token", os.Getenv("AUTHORITY_TOKEN"), "Bearer token for the ballot authority")
	flag.StringVar(&logLevel, "log-level", os.Getenv("LOG_LEVEL"), "Log level")
	flag.Int64Var(&questionID, "question", 0, "Question to tabulate")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Job timeout")
	flag.Parse()

	if authorityURL == "" || questionID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	l, err := logger.New("tally", logLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer l.Sync()

	reports := services.NewReportService(rest.New(authorityURL, token, timeout, l), l)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	l.Info("tabulating question", zap.Int64("question_id", questionID))
	result, err := reports.Results(ctx, questionID)
	if err != nil {
		l.Fatal("failed to tabulate question", zap.Int64("question_id", questionID), zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatal(err)
	}
}
