// cmd/tools/seed-listings/main.go

// seed-listings loads listing documents from a JSON file into the internal
// catalog index. Intended for local development and e2e environments.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"sourcing-match/internal/common/config"
	"sourcing-match/internal/common/database"
	"sourcing-match/internal/models"
)

func main() {
	file := flag.String("file", "testdata/listings.json", "Path to a JSON array of listings")
	index := flag.String("index", "", "Target index (defaults to the configured catalog index)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	target := *index
	if target == "" {
		target = cfg.Database.Elasticsearch.Index
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", *file, err)
		os.Exit(1)
	}

	var listings []models.CandidateItem
	if err := json.Unmarshal(data, &listings); err != nil {
		fmt.Printf("Error parsing %s: %v\n", *file, err)
		os.Exit(1)
	}
	if len(listings) == 0 {
		fmt.Println("Nothing to index.")
		return
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		fmt.Printf("Error connecting to Elasticsearch: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	indexed := 0
	for i, listing := range listings {
		id := listing.ID
		if id == "" {
			id = fmt.Sprintf("seed-%d", i+1)
		}

		body, err := json.Marshal(listing)
		if err != nil {
			fmt.Printf("Error encoding listing %s: %v\n", id, err)
			continue
		}

		res, err := es.Client.Index(target, bytes.NewReader(body),
			es.Client.Index.WithContext(ctx),
			es.Client.Index.WithDocumentID(id),
		)
		if err != nil {
			fmt.Printf("Error indexing listing %s: %v\n", id, err)
			continue
		}
		res.Body.Close()
		if res.IsError() {
			fmt.Printf("Error indexing listing %s: %s\n", id, res.Status())
			continue
		}
		indexed++
	}

	fmt.Printf("Indexed %d/%d listings into %q\n", indexed, len(listings), target)
}
