package media

import (
	"strings"
	"testing"

	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{"repeated fields", []string{"vfx", "cgi", "vfx"}, []string{"vfx", "cgi"}},
		{"comma separated", []string{" vfx, cgi ,, compositing "}, []string{"vfx", "cgi", "compositing"}},
		{"json array", []string{`["vfx", " cgi ", ""]`}, []string{"vfx", "cgi"}},
		{"mixed", []string{`["vfx"]`, "cgi,vfx", "matte"}, []string{"vfx", "cgi", "matte"}},
		{"broken json falls back to commas", []string{`["vfx",`}, []string{`["vfx"`}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTags(tt.values))
		})
	}
}

func TestApplyFields(t *testing.T) {
	t.Run("Success - only provided fields change", func(t *testing.T) {
		m := &models.Media{Title: "Keep", Category: models.CategoryDemo, SortOrder: 3}
		errs := applyFields(m, Fields{Description: str("new")})
		assert.Empty(t, errs)
		assert.Equal(t, "Keep", m.Title)
		assert.Equal(t, models.CategoryDemo, m.Category)
		assert.Equal(t, 3, m.SortOrder)
		assert.Equal(t, "new", m.Description)
	})

	t.Run("Success - normalizes enums", func(t *testing.T) {
		m := &models.Media{}
		errs := applyFields(m, Fields{Type: str(" VIDEO "), Category: str("Behind-Scenes")})
		assert.Empty(t, errs)
		assert.Equal(t, models.MediaTypeVideo, m.Type)
		assert.Equal(t, models.CategoryBehindScenes, m.Category)
	})

	t.Run("Error - length limits", func(t *testing.T) {
		m := &models.Media{}
		tooMany := make([]string, maxTags+1)
		for i := range tooMany {
			tooMany[i] = strings.Repeat("t", i+1)
		}
		negative := -1

		errs := applyFields(m, Fields{
			Title:       str(strings.Repeat("a", maxTitleLength+1)),
			Description: str(strings.Repeat("d", maxDescriptionLength+1)),
			Tags:        &tooMany,
			SortOrder:   &negative,
		})

		fields := map[string]bool{}
		for _, e := range errs {
			fields[e.Field] = true
		}
		assert.True(t, fields["title"])
		assert.True(t, fields["description"])
		assert.True(t, fields["tags"])
		assert.True(t, fields["sortOrder"])
	})

	t.Run("Error - thumbnail url must be http", func(t *testing.T) {
		errs := applyFields(&models.Media{}, Fields{ThumbnailURL: str("javascript:alert(1)")})
		assert.Len(t, errs, 1)
		assert.Equal(t, "thumbnailUrl", errs[0].Field)
	})
}

func TestValidHTTPURL(t *testing.T) {
	assert.True(t, validHTTPURL("https://res.cloudinary.com/demo/image/upload/a.jpg"))
	assert.True(t, validHTTPURL("http://localhost:5000/uploads/photos/a.jpg"))
	assert.False(t, validHTTPURL("/uploads/photos/a.jpg"))
	assert.False(t, validHTTPURL("ftp://example.com/a.jpg"))
	assert.False(t, validHTTPURL("https://"))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("6f1c1f3e-2b7a-4c55-9a57-0c3f8f0f5e21"))
	assert.False(t, ValidID("42"))
	assert.False(t, ValidID(""))
}
