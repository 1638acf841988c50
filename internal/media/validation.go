package media

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/google/uuid"
)

func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// applyFields copies every provided field onto m and reports the ones that
// fail validation. m is left partially updated when errors are returned.
// URLs equal to the stored ones pass unchecked, since local storage keeps
// relative /uploads paths.
func applyFields(m *models.Media, in Fields) []response.FieldError {
	var errs []response.FieldError
	fail := func(field, format string, args ...any) {
		errs = append(errs, response.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if in.Title != nil {
		title := strings.TrimSpace(titlePolicy.Sanitize(*in.Title))
		switch {
		case title == "":
			fail("title", "Title is required")
		case utf8.RuneCountInString(title) > maxTitleLength:
			fail("title", "Title must be at most %d characters", maxTitleLength)
		default:
			m.Title = title
		}
	}

	if in.Description != nil {
		description := strings.TrimSpace(descriptionPolicy.Sanitize(*in.Description))
		if utf8.RuneCountInString(description) > maxDescriptionLength {
			fail("description", "Description must be at most %d characters", maxDescriptionLength)
		} else {
			m.Description = description
		}
	}

	if in.Type != nil {
		t := models.MediaType(strings.ToLower(strings.TrimSpace(*in.Type)))
		if !t.Valid() {
			fail("type", "Type must be image or video")
		} else {
			m.Type = t
		}
	}

	if in.URL != nil {
		u := strings.TrimSpace(*in.URL)
		switch {
		case u == "", u == m.URL:
		case !validHTTPURL(u):
			fail("url", "URL must be an absolute http(s) URL")
		default:
			m.URL = u
		}
	}

	if in.ThumbnailURL != nil {
		u := strings.TrimSpace(*in.ThumbnailURL)
		if u != "" && u != m.ThumbnailURL && !validHTTPURL(u) {
			fail("thumbnailUrl", "Thumbnail URL must be an absolute http(s) URL")
		} else {
			m.ThumbnailURL = u
		}
	}

	if in.Category != nil {
		c := models.Category(strings.ToLower(strings.TrimSpace(*in.Category)))
		if !c.Valid() {
			fail("category", "Category must be one of: %s", categoryList())
		} else {
			m.Category = c
		}
	}

	if in.Tags != nil {
		tags := normalizeTags(*in.Tags)
		if msg := checkTags(tags); msg != "" {
			fail("tags", "Tags %s", msg)
		} else {
			m.Tags = tags
		}
	}

	if in.Keywords != nil {
		keywords := normalizeTags(*in.Keywords)
		if msg := checkTags(keywords); msg != "" {
			fail("seo.keywords", "Keywords %s", msg)
		} else {
			m.SEO.Keywords = keywords
		}
	}

	if in.AltText != nil {
		alt := strings.TrimSpace(titlePolicy.Sanitize(*in.AltText))
		if utf8.RuneCountInString(alt) > maxAltTextLength {
			fail("seo.altText", "Alt text must be at most %d characters", maxAltTextLength)
		} else {
			m.SEO.AltText = alt
		}
	}

	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		m.IsFeatured = *in.IsFeatured
	}

	if in.SortOrder != nil {
		if *in.SortOrder < 0 {
			fail("sortOrder", "Sort order must not be negative")
		} else {
			m.SortOrder = *in.SortOrder
		}
	}

	if in.Duration != nil {
		if *in.Duration < 0 {
			fail("duration", "Duration must not be negative")
		} else {
			d := *in.Duration
			m.Duration = &d
		}
	}

	return errs
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// parseTags accepts repeated values, comma separated strings and JSON arrays,
// in any mix.
func parseTags(values []string) []string {
	var tags []string
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if strings.HasPrefix(raw, "[") {
			var list []string
			if err := json.Unmarshal([]byte(raw), &list); err == nil {
				tags = append(tags, list...)
				continue
			}
		}
		tags = append(tags, strings.Split(raw, ",")...)
	}
	return normalizeTags(tags)
}

// normalizeTags trims, drops empties and de-duplicates, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func checkTags(tags []string) string {
	if len(tags) > maxTags {
		return fmt.Sprintf("must contain at most %d entries", maxTags)
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > maxTagLength {
			return fmt.Sprintf("must be at most %d characters each", maxTagLength)
		}
	}
	return ""
}
