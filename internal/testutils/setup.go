package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/Kyz7/pixelarts/internal/auth"
	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/repository/sqlstore"
	"github.com/Kyz7/pixelarts/internal/server"
	"github.com/Kyz7/pixelarts/internal/storage"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const TestJWTSecret = "test_secret_key_minimum_32_characters_long_for_testing_only"

type TestEnv struct {
	App      *fiber.App
	Config   *config.Config
	Store    *repository.Store
	Storage  storage.Provider
	Registry *prometheus.Registry
}

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.Media{}, &models.RevokedToken{})
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

func TestConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppEnv:       "test",
		APIPrefix:    "/api",
		CORSOrigins:  "*",
		BodyLimitMB:  110,
		DBDriver:     "sqlite",
		JWTSecret:    TestJWTSecret,
		JWTExpiresIn: time.Hour,
		Storage: config.StorageConfig{
			Driver:           "local",
			CloudinaryFolder: "pixelarts-test",
			UploadDir:        t.TempDir(),
		},
	}
}

// SetupTestApp builds the full app on in-memory SQLite and local storage in a
// temp dir.
func SetupTestApp(t *testing.T) *TestEnv {
	cfg := TestConfig(t)

	local, err := storage.NewLocal(cfg.Storage.UploadDir)
	require.NoError(t, err, "Failed to initialize storage")

	return SetupTestAppWithStorage(t, cfg, local)
}

func SetupTestAppWithStorage(t *testing.T, cfg *config.Config, provider storage.Provider) *TestEnv {
	store := sqlstore.New(TestDB(t))
	reg := prometheus.NewRegistry()

	srv, err := server.New(server.Options{
		Config:   cfg,
		Store:    store,
		Storage:  provider,
		Registry: reg,
	})
	require.NoError(t, err, "Failed to build server")

	return &TestEnv{
		App:      srv.App,
		Config:   cfg,
		Store:    store,
		Storage:  provider,
		Registry: reg,
	}
}

func CreateTestUser(t *testing.T, store *repository.Store, username, password, role string) *models.User {
	hashedPassword, err := auth.HashPassword(password)
	require.NoError(t, err)

	email := username + "@pixelarts.test"
	u := &models.User{
		Username: username,
		Email:    &email,
		Password: hashedPassword,
		Role:     role,
		IsActive: true,
		Provider: models.ProviderLocal,
	}

	err = store.Users.Create(context.Background(), u)
	require.NoError(t, err, "Failed to create test user")

	return u
}

func GetAuthToken(t *testing.T, u *models.User) string {
	token, _, err := auth.NewTokenIssuer(TestJWTSecret, time.Hour).Generate(u)
	require.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return send(app, req)
}

// FormFile is a file part for MakeMultipartRequest.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

func MakeMultipartRequest(app *fiber.App, method, url string, fields map[string][]string, file *FormFile, token string) (*httptest.ResponseRecorder, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, values := range fields {
		for _, val := range values {
			if err := writer.WriteField(key, val); err != nil {
				return nil, err
			}
		}
	}

	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+file.Field+`"; filename="`+file.Filename+`"`)
		header.Set("Content-Type", file.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, err
		}
	}

	contentType := writer.FormDataContentType()
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", contentType)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return send(app, req)
}

func send(app *fiber.App, req *http.Request) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode
	for k, v := range resp.Header {
		for _, val := range v {
			rec.Header().Add(k, val)
		}
	}

	_, _ = io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.Unmarshal(resp.Body.Bytes(), v)
	if err != nil {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Errors  []FieldError           `json:"errors"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (r StandardResponse) HasFieldError(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) StandardResponse {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Code, "Expected no error code")
	return result
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) StandardResponse {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	assert.Equal(t, expectedCode, result.Code, "Error code mismatch")
	return result
}
