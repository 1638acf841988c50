package media_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Kyz7/pixelarts/internal/media"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/repository/sqlstore"
	"github.com/Kyz7/pixelarts/internal/storage"
	"github.com/Kyz7/pixelarts/internal/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	for x := 0; x < 640; x++ {
		for y := 0; y < 360; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func mediaFrom(t *testing.T, result testutils.StandardResponse) map[string]interface{} {
	m, ok := result.Data["media"].(map[string]interface{})
	require.True(t, ok, "response has no media object")
	return m
}

func mediaList(t *testing.T, result testutils.StandardResponse) []interface{} {
	items, ok := result.Data["media"].([]interface{})
	require.True(t, ok, "response has no media list")
	return items
}

func createFromURL(t *testing.T, env *testutils.TestEnv, token string, body map[string]interface{}) string {
	resp, err := testutils.MakeRequest(env.App, "POST", "/api/media", body, token)
	require.NoError(t, err)
	require.Equal(t, 201, resp.Code, resp.Body.String())

	result := testutils.AssertSuccess(t, resp)
	return mediaFrom(t, result)["_id"].(string)
}

func TestCreateMediaHandler(t *testing.T) {
	env := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)
	adminToken := testutils.GetAuthToken(t, admin)
	editor := testutils.CreateTestUser(t, env.Store, "editor", "password123", models.RoleEditor)
	editorToken := testutils.GetAuthToken(t, editor)

	t.Run("Success - Upload image file", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(env.App, "POST", "/api/media", map[string][]string{
			"title":    {"Explosion Breakdown"},
			"category": {"portfolio"},
			"tags":     {"fx", "fire"},
		}, &testutils.FormFile{
			Field:       "file",
			Filename:    "explosion.png",
			ContentType: "image/png",
			Content:     samplePNG(t),
		}, adminToken)
		require.NoError(t, err)
		require.Equal(t, 201, resp.Code, resp.Body.String())

		result := testutils.AssertSuccess(t, resp)
		m := mediaFrom(t, result)
		assert.Equal(t, "Explosion Breakdown", m["title"])
		assert.Equal(t, "image", m["type"])
		assert.Equal(t, "portfolio", m["category"])
		assert.Equal(t, "local", m["storageProvider"])
		assert.Equal(t, "image/png", m["mimeType"])
		assert.EqualValues(t, 640, m["width"])
		assert.EqualValues(t, 360, m["height"])
		assert.Equal(t, []interface{}{"fx", "fire"}, m["tags"])
		assert.Equal(t, admin.ID, m["uploadedBy"])

		metadata := m["metadata"].(map[string]interface{})
		assert.Equal(t, "file-upload", metadata["uploadSource"])
		assert.Equal(t, "explosion.png", metadata["originalName"])
		assert.Equal(t, "high", metadata["quality"])

		publicID := m["cloudinaryPublicId"].(string)
		_, err = os.Stat(filepath.Join(env.Config.Storage.UploadDir, publicID))
		assert.NoError(t, err, "uploaded file should be on disk")
		assert.NotEmpty(t, m["thumbnailUrl"])

		stored, err := env.Store.Media.FindByID(t.Context(), m["_id"].(string))
		require.NoError(t, err)
		assert.Equal(t, "Explosion Breakdown", stored.Title)

		served, err := testutils.MakeRequest(env.App, "GET", m["url"].(string), nil, "")
		require.NoError(t, err)
		assert.Equal(t, 200, served.Code)
	})

	t.Run("Success - Create from URL with JSON", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/media", map[string]interface{}{
			"title":    "Showreel 2024",
			"type":     "video",
			"url":      "https://www.youtube.com/watch?v=abc123",
			"category": "showreel",
			"tags":     []string{"reel", "reel", " 2024 "},
			"seo":      map[string]interface{}{"keywords": "vfx, studio", "altText": "Studio reel"},
		}, adminToken)
		require.NoError(t, err)
		require.Equal(t, 201, resp.Code, resp.Body.String())

		m := mediaFrom(t, testutils.AssertSuccess(t, resp))
		assert.Equal(t, "video", m["type"])
		assert.Equal(t, []interface{}{"reel", "2024"}, m["tags"])
		assert.Equal(t, true, m["isActive"])

		seo := m["seo"].(map[string]interface{})
		assert.Equal(t, []interface{}{"vfx", "studio"}, seo["keywords"])
		assert.Equal(t, "Studio reel", seo["altText"])

		metadata := m["metadata"].(map[string]interface{})
		assert.Equal(t, "url", metadata["uploadSource"])
	})

	t.Run("Success - Tags as comma separated form field", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(env.App, "POST", "/api/media", map[string][]string{
			"title":  {"Matte Painting"},
			"url":    {"https://cdn.example.com/matte.jpg"},
			"tags[]": {"matte, painting"},
		}, nil, adminToken)
		require.NoError(t, err)
		require.Equal(t, 201, resp.Code, resp.Body.String())

		m := mediaFrom(t, testutils.AssertSuccess(t, resp))
		assert.Equal(t, []interface{}{"matte", "painting"}, m["tags"])
	})

	t.Run("Error - Neither file nor URL", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/media", map[string]interface{}{
			"title": "Nothing attached",
		}, adminToken)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.True(t, result.HasFieldError("url"))
	})

	t.Run("Error - Invalid category", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/media", map[string]interface{}{
			"title":    "Bad category",
			"url":      "https://cdn.example.com/a.jpg",
			"category": "documentary",
		}, adminToken)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.True(t, result.HasFieldError("category"))
	})

	t.Run("Error - Unsupported file type", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(env.App, "POST", "/api/media", map[string][]string{
			"title": {"Notes"},
		}, &testutils.FormFile{
			Field:       "file",
			Filename:    "notes.txt",
			ContentType: "text/plain",
			Content:     []byte("shot list"),
		}, adminToken)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "BAD_REQUEST")
		assert.Equal(t, "Only image and video files are allowed", result.Message)
	})

	t.Run("Error - Missing token", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/media", map[string]interface{}{
			"title": "Anon",
			"url":   "https://cdn.example.com/a.jpg",
		}, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
		testutils.AssertError(t, resp, "UNAUTHORIZED")
	})

	t.Run("Error - Editor cannot create", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/media", map[string]interface{}{
			"title": "Editor upload",
			"url":   "https://cdn.example.com/a.jpg",
		}, editorToken)
		require.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
		testutils.AssertError(t, resp, "FORBIDDEN")
	})
}

func TestListMediaHandler(t *testing.T) {
	env := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)
	token := testutils.GetAuthToken(t, admin)

	for i := 0; i < 3; i++ {
		createFromURL(t, env, token, map[string]interface{}{
			"title":    fmt.Sprintf("Portfolio %d", i),
			"url":      fmt.Sprintf("https://cdn.example.com/%d.jpg", i),
			"category": "portfolio",
		})
	}
	hiddenID := createFromURL(t, env, token, map[string]interface{}{
		"title":    "Work in progress",
		"url":      "https://cdn.example.com/wip.mp4",
		"type":     "video",
		"isActive": false,
	})

	t.Run("Success - Public list hides inactive media", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media", nil, "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		result := testutils.AssertSuccess(t, resp)
		items := mediaList(t, result)
		assert.Len(t, items, 3)
		for _, item := range items {
			assert.NotEqual(t, hiddenID, item.(map[string]interface{})["_id"])
		}

		pagination := result.Data["pagination"].(map[string]interface{})
		assert.EqualValues(t, 3, pagination["total"])
		assert.EqualValues(t, 12, pagination["limit"])
	})

	t.Run("Success - Public cannot override active filter", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media?active=false", nil, "")
		require.NoError(t, err)

		result := testutils.AssertSuccess(t, resp)
		assert.Len(t, mediaList(t, result), 3)
	})

	t.Run("Success - Admin sees everything and can filter", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media", nil, token)
		require.NoError(t, err)
		assert.Len(t, mediaList(t, testutils.AssertSuccess(t, resp)), 4)

		resp, err = testutils.MakeRequest(env.App, "GET", "/api/media?active=false", nil, token)
		require.NoError(t, err)
		items := mediaList(t, testutils.AssertSuccess(t, resp))
		require.Len(t, items, 1)
		assert.Equal(t, hiddenID, items[0].(map[string]interface{})["_id"])
	})

	t.Run("Success - Filter by type and search", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media?type=image&search=portfolio%201", nil, "")
		require.NoError(t, err)

		items := mediaList(t, testutils.AssertSuccess(t, resp))
		require.Len(t, items, 1)
		assert.Equal(t, "Portfolio 1", items[0].(map[string]interface{})["title"])
	})

	t.Run("Success - Limit is clamped", func(t *testing.T) {
		cases := map[string]float64{
			"/api/media?limit=1000": 100,
			"/api/media?limit=0":    1,
			"/api/media?limit=-5":   1,
			"/api/media?limit=abc":  12,
		}
		for url, want := range cases {
			resp, err := testutils.MakeRequest(env.App, "GET", url, nil, "")
			require.NoError(t, err)

			result := testutils.AssertSuccess(t, resp)
			pagination := result.Data["pagination"].(map[string]interface{})
			assert.Equal(t, want, pagination["limit"], url)
			assert.LessOrEqual(t, len(mediaList(t, result)), int(want), url)
		}
	})

	t.Run("Error - Invalid filters", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media?type=audio&sort=random", nil, "")
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.True(t, result.HasFieldError("type"))
		assert.True(t, result.HasFieldError("sort"))
	})
}

func TestGetMediaHandler(t *testing.T) {
	env := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)
	token := testutils.GetAuthToken(t, admin)

	id := createFromURL(t, env, token, map[string]interface{}{
		"title": "Crowd Simulation",
		"url":   "https://cdn.example.com/crowd.jpg",
	})
	hiddenID := createFromURL(t, env, token, map[string]interface{}{
		"title":    "Draft",
		"url":      "https://cdn.example.com/draft.jpg",
		"isActive": false,
	})

	t.Run("Success - Get increments views and includes uploader", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media/"+id, nil, "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		m := mediaFrom(t, testutils.AssertSuccess(t, resp))
		assert.EqualValues(t, 1, m["viewCount"])

		uploader := m["uploader"].(map[string]interface{})
		assert.Equal(t, "admin", uploader["username"])
		assert.Nil(t, uploader["password"])
	})

	t.Run("Error - Inactive media is hidden from the public", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media/"+hiddenID, nil, "")
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)

		resp, err = testutils.MakeRequest(env.App, "GET", "/api/media/"+hiddenID, nil, token)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
	})

	t.Run("Error - Unknown ID", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media/6f1c1f3e-2b7a-4c55-9a57-0c3f8f0f5e21", nil, "")
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
		testutils.AssertError(t, resp, "NOT_FOUND")
	})

	t.Run("Error - Malformed ID", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media/not-a-uuid", nil, "")
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "BAD_REQUEST")
		assert.Equal(t, "Invalid media ID", result.Message)
	})
}

func TestUpdateMediaHandler(t *testing.T) {
	env := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)
	token := testutils.GetAuthToken(t, admin)

	id := createFromURL(t, env, token, map[string]interface{}{
		"title": "Water Sim",
		"url":   "https://cdn.example.com/water.jpg",
		"tags":  []string{"water"},
	})

	t.Run("Success - Partial update with JSON", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PUT", "/api/media/"+id, map[string]interface{}{
			"isFeatured": true,
			"tags":       "water, ocean",
		}, token)
		require.NoError(t, err)
		require.Equal(t, 200, resp.Code, resp.Body.String())

		m := mediaFrom(t, testutils.AssertSuccess(t, resp))
		assert.Equal(t, "Water Sim", m["title"])
		assert.Equal(t, true, m["isFeatured"])
		assert.Equal(t, []interface{}{"water", "ocean"}, m["tags"])
	})

	t.Run("Success - Update with form fields", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(env.App, "PUT", "/api/media/"+id, map[string][]string{
			"title":     {"Water Simulation"},
			"sortOrder": {"4"},
		}, nil, token)
		require.NoError(t, err)
		require.Equal(t, 200, resp.Code, resp.Body.String())

		m := mediaFrom(t, testutils.AssertSuccess(t, resp))
		assert.Equal(t, "Water Simulation", m["title"])
		assert.EqualValues(t, 4, m["sortOrder"])
		assert.Equal(t, true, m["isFeatured"])
	})

	t.Run("Error - Empty title", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PUT", "/api/media/"+id, map[string]interface{}{
			"title": "   ",
		}, token)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.True(t, result.HasFieldError("title"))
	})

	t.Run("Error - Bad boolean in form", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(env.App, "PUT", "/api/media/"+id, map[string][]string{
			"isActive": {"maybe"},
		}, nil, token)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.True(t, result.HasFieldError("isActive"))
	})

	t.Run("Error - Unknown ID", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PUT", "/api/media/6f1c1f3e-2b7a-4c55-9a57-0c3f8f0f5e21", map[string]interface{}{
			"title": "Ghost",
		}, token)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}

func TestDeleteMediaHandler(t *testing.T) {
	env := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)
	token := testutils.GetAuthToken(t, admin)

	resp, err := testutils.MakeMultipartRequest(env.App, "POST", "/api/media", map[string][]string{
		"title": {"Smoke Plate"},
	}, &testutils.FormFile{
		Field:       "file",
		Filename:    "smoke.png",
		ContentType: "image/png",
		Content:     samplePNG(t),
	}, token)
	require.NoError(t, err)
	require.Equal(t, 201, resp.Code, resp.Body.String())

	m := mediaFrom(t, testutils.AssertSuccess(t, resp))
	id := m["_id"].(string)
	onDisk := filepath.Join(env.Config.Storage.UploadDir, m["cloudinaryPublicId"].(string))

	t.Run("Success - Delete removes record and file", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "DELETE", "/api/media/"+id, nil, token)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Empty(t, resp.Header().Values("X-Warning"))

		result := testutils.AssertSuccess(t, resp)
		assert.Equal(t, "Media deleted successfully", result.Message)

		_, err = os.Stat(onDisk)
		assert.True(t, os.IsNotExist(err))

		resp, err = testutils.MakeRequest(env.App, "GET", "/api/media/"+id, nil, token)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)

		resp, err = testutils.MakeRequest(env.App, "GET", "/api/media", nil, token)
		require.NoError(t, err)
		assert.Empty(t, mediaList(t, testutils.AssertSuccess(t, resp)))
	})

	t.Run("Error - Delete twice", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "DELETE", "/api/media/"+id, nil, token)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}

func TestClickMediaHandler(t *testing.T) {
	env := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)
	token := testutils.GetAuthToken(t, admin)

	id := createFromURL(t, env, token, map[string]interface{}{
		"title": "Destruction Reel",
		"url":   "https://cdn.example.com/destruction.jpg",
	})

	t.Run("Success - Clicks increase monotonically", func(t *testing.T) {
		var last float64
		for i := 0; i < 3; i++ {
			resp, err := testutils.MakeRequest(env.App, "POST", "/api/media/"+id+"/click", nil, "")
			require.NoError(t, err)
			require.Equal(t, 200, resp.Code)

			result := testutils.AssertSuccess(t, resp)
			clicks := result.Data["clickCount"].(float64)
			assert.Greater(t, clicks, last)
			last = clicks
		}
		assert.Equal(t, float64(3), last)
	})

	t.Run("Error - Unknown ID", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "POST", "/api/media/6f1c1f3e-2b7a-4c55-9a57-0c3f8f0f5e21/click", nil, "")
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})
}

func TestStatsAndReorderHandler(t *testing.T) {
	env := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)
	token := testutils.GetAuthToken(t, admin)

	first := createFromURL(t, env, token, map[string]interface{}{
		"title": "First",
		"url":   "https://cdn.example.com/first.jpg",
	})
	second := createFromURL(t, env, token, map[string]interface{}{
		"title":      "Second",
		"url":        "https://cdn.example.com/second.mp4",
		"type":       "video",
		"category":   "tutorial",
		"isFeatured": true,
	})

	t.Run("Success - Stats overview", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media/stats/overview", nil, token)
		require.NoError(t, err)
		require.Equal(t, 200, resp.Code)

		result := testutils.AssertSuccess(t, resp)
		assert.EqualValues(t, 2, result.Data["totalMedia"])
		assert.EqualValues(t, 1, result.Data["totalImages"])
		assert.EqualValues(t, 1, result.Data["totalVideos"])
		assert.EqualValues(t, 1, result.Data["featuredMedia"])
		assert.EqualValues(t, 2, result.Data["recentUploads"])
		assert.Equal(t, "local", result.Data["storageMode"])
	})

	t.Run("Error - Stats require a token", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/api/media/stats/overview", nil, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
	})

	t.Run("Success - Reorder", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PATCH", "/api/media/reorder", map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": first, "sortOrder": 2},
				{"id": second, "sortOrder": 1},
			},
		}, token)
		require.NoError(t, err)
		require.Equal(t, 200, resp.Code, resp.Body.String())

		result := testutils.AssertSuccess(t, resp)
		assert.EqualValues(t, 2, result.Data["updated"])

		resp, err = testutils.MakeRequest(env.App, "GET", "/api/media?sort=order", nil, "")
		require.NoError(t, err)
		items := mediaList(t, testutils.AssertSuccess(t, resp))
		require.Len(t, items, 2)
		assert.Equal(t, second, items[0].(map[string]interface{})["_id"])
		assert.Equal(t, first, items[1].(map[string]interface{})["_id"])
	})

	t.Run("Error - Reorder with unknown ID", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PATCH", "/api/media/reorder", map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": "6f1c1f3e-2b7a-4c55-9a57-0c3f8f0f5e21", "sortOrder": 0},
			},
		}, token)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Error - Reorder with empty list", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PATCH", "/api/media/reorder", map[string]interface{}{
			"items": []map[string]interface{}{},
		}, token)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
		testutils.AssertError(t, resp, "VALIDATION_ERROR")
	})
}

// filterRecorder keeps the last filter the list handler passed down.
type filterRecorder struct {
	repository.MediaRepository
	last repository.MediaFilter
}

func (r *filterRecorder) List(ctx context.Context, f repository.MediaFilter) ([]models.Media, int64, error) {
	r.last = f
	return r.MediaRepository.List(ctx, f)
}

func TestListMediaHandler_SearchTruncation(t *testing.T) {
	store := sqlstore.New(testutils.TestDB(t))
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	rec := &filterRecorder{MediaRepository: store.Media}
	h := media.NewHandler(media.NewService(rec, store.Users, local, nil, "pixelarts-test"))
	app := fiber.New()
	app.Get("/media", h.List)

	t.Run("Success - multibyte search under the limit is kept whole", func(t *testing.T) {
		q := strings.Repeat("中", 40)
		resp, err := testutils.MakeRequest(app, "GET", "/media?search="+url.QueryEscape(q), nil, "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code, resp.Body.String())

		assert.Equal(t, q, rec.last.Search)
		assert.True(t, utf8.ValidString(rec.last.Search))
	})

	t.Run("Success - long multibyte search is cut on a character boundary", func(t *testing.T) {
		q := strings.Repeat("爆", 150)
		resp, err := testutils.MakeRequest(app, "GET", "/media?search="+url.QueryEscape(q), nil, "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code, resp.Body.String())

		assert.True(t, utf8.ValidString(rec.last.Search))
		assert.Equal(t, 100, utf8.RuneCountInString(rec.last.Search))
	})
}

func TestUpdateMediaHandler_UploadedItem(t *testing.T) {
	env := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, env.Store, "admin", "password123", models.RoleAdmin)
	token := testutils.GetAuthToken(t, admin)

	resp, err := testutils.MakeMultipartRequest(env.App, "POST", "/api/media", map[string][]string{
		"title": {"Plate"},
	}, &testutils.FormFile{
		Field:       "file",
		Filename:    "plate.png",
		ContentType: "image/png",
		Content:     samplePNG(t),
	}, token)
	require.NoError(t, err)
	require.Equal(t, 201, resp.Code, resp.Body.String())

	m := mediaFrom(t, testutils.AssertSuccess(t, resp))
	id := m["_id"].(string)
	storedURL := m["url"].(string)
	require.True(t, strings.HasPrefix(storedURL, storage.LocalURLPrefix+"/"))

	t.Run("Success - sending back the stored url and thumbnail", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PUT", "/api/media/"+id, map[string]interface{}{
			"title":        "Plate v2",
			"url":          storedURL,
			"thumbnailUrl": m["thumbnailUrl"],
		}, token)
		require.NoError(t, err)
		require.Equal(t, 200, resp.Code, resp.Body.String())

		updated := mediaFrom(t, testutils.AssertSuccess(t, resp))
		assert.Equal(t, "Plate v2", updated["title"])
		assert.Equal(t, storedURL, updated["url"])
		assert.Equal(t, m["cloudinaryPublicId"], updated["cloudinaryPublicId"])

		_, err = os.Stat(filepath.Join(env.Config.Storage.UploadDir, m["cloudinaryPublicId"].(string)))
		assert.NoError(t, err, "file should still be on disk")
	})

	t.Run("Error - form sends both flags invalid", func(t *testing.T) {
		resp, err := testutils.MakeMultipartRequest(env.App, "PUT", "/api/media/"+id, map[string][]string{
			"isActive":   {"maybe"},
			"isFeatured": {"sometimes"},
		}, nil, token)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		require.Len(t, result.Errors, 2)
		assert.Equal(t, "isActive", result.Errors[0].Field)
		assert.Equal(t, "isFeatured", result.Errors[1].Field)
	})

	t.Run("Error - changing type of an uploaded file", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PUT", "/api/media/"+id, map[string]interface{}{
			"type": "video",
		}, token)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.True(t, result.HasFieldError("type"))
	})
}
