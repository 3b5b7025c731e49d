package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/config"
	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/repositories"
)

const defaultSeedFile = "./seed/candidates.json"

func main() {
	log.Println("🚀 Starting candidate seeding...")

	// Load configuration
	cfg := config.Load()

	zlog, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("❌ Failed to create logger: %v", err)
	}

	db, err := config.InitDatabase(cfg, zlog)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	candidateRepo := repositories.NewCandidateRepository(db)

	files := os.Args[1:]
	if len(files) == 0 {
		files = []string{defaultSeedFile}
	}

	ctx := context.Background()

	successCount := 0
	failCount := 0

	for _, path := range files {
		log.Printf("\n📄 Processing: %s", path)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("   ⚠️  Unable to read file, skipping: %v", err)
			failCount++
			continue
		}

		var candidates []models.Candidate
		if err := json.Unmarshal(data, &candidates); err != nil {
			log.Printf("   ❌ Failed to parse candidates: %v", err)
			failCount++
			continue
		}

		valid := candidates[:0]
		for _, c := range candidates {
			if strings.TrimSpace(c.CandidateID) == "" {
				log.Printf("   ⚠️  Candidate without candidateId skipped (%s)", c.CandidateName)
				continue
			}
			valid = append(valid, c)
		}

		if err := candidateRepo.Upsert(ctx, valid); err != nil {
			log.Printf("   ❌ Failed to store candidates: %v", err)
			failCount++
			continue
		}

		log.Printf("   ✅ Stored %d candidates (existing ids left untouched)", len(valid))
		successCount++
	}

	// Summary
	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Seeding Summary:")
	log.Printf("   ✅ Successful: %d files", successCount)
	log.Printf("   ❌ Failed: %d files", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Println("⚠️  Some files failed to seed. Please check the logs above.")
		os.Exit(1)
	}

	log.Println("✅ All candidates seeded successfully!")
}
