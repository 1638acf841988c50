package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/Kyz7/pixelarts/internal/database"
	"github.com/Kyz7/pixelarts/internal/logger"
	"github.com/Kyz7/pixelarts/internal/media"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/storage"
	"github.com/brianvoe/gofakeit/v6"
)

// seedTag marks demo items so -purge only touches what this tool created.
const seedTag = "demo-seed"

func main() {
	perCategory := flag.Int("n", 3, "media items to create per category")
	purge := flag.Bool("purge", false, "delete previously seeded demo media and exit")
	flag.Parse()

	cfg := config.Load()
	if err := logger.Init(cfg.LogLevel, "console"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := database.OpenStore(ctx, cfg, "./migrations")
	if err != nil {
		log.Fatalw("failed to open store", "error", err)
	}
	defer store.Close(context.Background())

	provider, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalw("failed to initialize storage", "error", err)
	}
	svc := media.NewService(store.Media, store.Users, provider, nil, cfg.Storage.CloudinaryFolder)

	if *purge {
		n, err := purgeSeeded(ctx, svc)
		if err != nil {
			log.Fatalw("purge failed", "error", err)
		}
		log.Infow("seeded media removed", "count", n)
		return
	}

	var uploader *models.User
	if cfg.AdminUsername != "" {
		uploader, err = store.Users.FindByUsername(ctx, cfg.AdminUsername)
		if err != nil {
			log.Warnw("admin user not found, seeding without uploader", "username", cfg.AdminUsername)
			uploader = nil
		}
	}

	gofakeit.Seed(time.Now().UnixNano())

	created := 0
	for _, category := range models.Categories {
		for i := 0; i < *perCategory; i++ {
			if _, err := svc.Create(ctx, fakeFields(category, i), nil, uploader); err != nil {
				log.Fatalw("failed to create demo media", "category", category, "error", err)
			}
			created++
		}
	}
	log.Infow("demo media seeded", "count", created, "categories", len(models.Categories))
}

func fakeFields(category models.Category, i int) media.Fields {
	title := fmt.Sprintf("%s %s", capitalize(gofakeit.HipsterWord()), gofakeit.RandomString([]string{
		"Breakdown", "Compositing", "Simulation", "Matte Painting", "Lookdev", "Previs",
	}))
	description := gofakeit.Sentence(16)
	kind := string(models.MediaTypeImage)
	seed := gofakeit.UUID()[:8]
	url := fmt.Sprintf("https://picsum.photos/seed/%s/1920/1080", seed)
	thumb := fmt.Sprintf("https://picsum.photos/seed/%s/400/400", seed)

	if category == models.CategoryShowreel || (category == models.CategoryTutorial && i%2 == 0) {
		kind = string(models.MediaTypeVideo)
		url = "https://www.youtube.com/watch?v=" + gofakeit.LetterN(11)
	}

	tags := []string{seedTag, string(category), strings.ToLower(gofakeit.HipsterWord())}
	keywords := []string{"vfx", "pixel arts", strings.ToLower(gofakeit.BuzzWord())}
	cat := string(category)
	active := gofakeit.Number(0, 9) > 0
	featured := i == 0
	order := i

	return media.Fields{
		Title:        &title,
		Description:  &description,
		Type:         &kind,
		URL:          &url,
		ThumbnailURL: &thumb,
		Category:     &cat,
		Tags:         &tags,
		Keywords:     &keywords,
		IsActive:     &active,
		IsFeatured:   &featured,
		SortOrder:    &order,
	}
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

func purgeSeeded(ctx context.Context, svc *media.Service) (int, error) {
	var ids []string
	for page := 1; ; page++ {
		items, total, err := svc.List(ctx, repository.MediaFilter{
			Search: seedTag,
			Sort:   repository.SortNewest,
			Page:   page,
			Limit:  100,
		})
		if err != nil {
			return 0, err
		}
		for _, m := range items {
			if slices.Contains(m.Tags, seedTag) {
				ids = append(ids, m.ID)
			}
		}
		if int64(page*100) >= total {
			break
		}
	}

	for _, id := range ids {
		if _, err := svc.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("delete %s: %w", id, err)
		}
	}
	return len(ids), nil
}
