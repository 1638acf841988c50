package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Kyz7/pixelarts/internal/auth"
	"github.com/Kyz7/pixelarts/internal/models"
	"github.com/Kyz7/pixelarts/internal/repository"
	"github.com/Kyz7/pixelarts/internal/response"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPage  = 1
	defaultLimit = 12
	maxLimit     = 100
	maxSearchLen = 100
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(c *fiber.Ctx) error {
	f := repository.MediaFilter{
		Page:   parsePage(c.Query("page")),
		Limit:  parseLimit(c.Query("limit")),
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   strings.ToLower(c.Query("sort", repository.SortNewest)),
	}
	if utf8.RuneCountInString(f.Search) > maxSearchLen {
		f.Search = string([]rune(f.Search)[:maxSearchLen])
	}

	var errs []response.FieldError
	if v := c.Query("type"); v != "" {
		f.Type = models.MediaType(strings.ToLower(v))
		if !f.Type.Valid() {
			errs = append(errs, response.FieldError{Field: "type", Message: "Type must be image or video"})
		}
	}
	if v := c.Query("category"); v != "" {
		f.Category = models.Category(strings.ToLower(v))
		if !f.Category.Valid() {
			errs = append(errs, response.FieldError{Field: "category", Message: "Category must be one of: " + categoryList()})
		}
	}
	if !repository.ValidSort(f.Sort) {
		errs = append(errs, response.FieldError{Field: "sort", Message: "Sort must be one of: newest, oldest, title, order, popular"})
	}
	if v := c.Query("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, response.FieldError{Field: "featured", Message: "Featured must be true or false"})
		}
		f.Featured = &featured
	}

	if auth.IsAdmin(c) {
		switch v := strings.ToLower(c.Query("active", "all")); v {
		case "all", "":
		default:
			active, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, response.FieldError{Field: "active", Message: "Active must be true, false or all"})
			}
			f.Active = &active
		}
	} else {
		active := true
		f.Active = &active
	}

	if len(errs) > 0 {
		return response.ValidationError(c, errs)
	}

	items, total, err := h.svc.List(c.UserContext(), f)
	if err != nil {
		return response.ServerError(c, "Failed to fetch media", err)
	}

	return response.Success(c, fiber.Map{
		"media":      items,
		"pagination": response.CalculateMeta(f.Page, f.Limit, total),
	}, "Media retrieved successfully")
}

func (h *Handler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if !ValidID(id) {
		return response.BadRequest(c, "Invalid media ID")
	}

	m, err := h.svc.View(c.UserContext(), id, auth.IsAdmin(c))
	if errors.Is(err, repository.ErrNotFound) {
		return response.NotFound(c, "Media")
	}
	if err != nil {
		return response.ServerError(c, "Failed to fetch media", err)
	}

	return response.Success(c, fiber.Map{"media": m}, "Media retrieved successfully")
}

func (h *Handler) Create(c *fiber.Ctx) error {
	in, errs := parseFields(c)
	if len(errs) > 0 {
		return response.ValidationError(c, errs)
	}

	var file *File
	if fh, err := c.FormFile("file"); err == nil {
		src, err := fh.Open()
		if err != nil {
			return response.BadRequest(c, "Unable to read uploaded file")
		}
		defer src.Close()
		file = fileFromHeader(fh, src)
	}

	m, err := h.svc.Create(c.UserContext(), in, file, auth.CurrentUser(c))
	if err != nil {
		return h.writeError(c, err, "Failed to create media")
	}

	return response.Created(c, fiber.Map{"media": m}, "Media created successfully")
}

func (h *Handler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if !ValidID(id) {
		return response.BadRequest(c, "Invalid media ID")
	}

	in, errs := parseFields(c)
	if len(errs) > 0 {
		return response.ValidationError(c, errs)
	}

	m, err := h.svc.Update(c.UserContext(), id, in)
	if err != nil {
		return h.writeError(c, err, "Failed to update media")
	}

	return response.Success(c, fiber.Map{"media": m}, "Media updated successfully")
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if !ValidID(id) {
		return response.BadRequest(c, "Invalid media ID")
	}

	warnings, err := h.svc.Delete(c.UserContext(), id)
	for _, w := range warnings {
		c.Append("X-Warning", w)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return response.NotFound(c, "Media")
	}
	if err != nil {
		return response.ServerError(c, "Failed to delete media", err)
	}

	return response.Success(c, nil, "Media deleted successfully")
}

func (h *Handler) Click(c *fiber.Ctx) error {
	id := c.Params("id")
	if !ValidID(id) {
		return response.BadRequest(c, "Invalid media ID")
	}

	clicks, err := h.svc.Click(c.UserContext(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return response.NotFound(c, "Media")
	}
	if err != nil {
		return response.ServerError(c, "Failed to record click", err)
	}

	return response.Success(c, fiber.Map{"clickCount": clicks}, "Click recorded")
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return response.ServerError(c, "Failed to fetch media statistics", err)
	}
	return response.Success(c, stats, "Media statistics retrieved successfully")
}

func (h *Handler) Reorder(c *fiber.Ctx) error {
	var body struct {
		Items []struct {
			ID        string `json:"id"`
			SortOrder int    `json:"sortOrder"`
		} `json:"items"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	updates := make([]repository.SortOrderUpdate, len(body.Items))
	for i, item := range body.Items {
		updates[i] = repository.SortOrderUpdate{ID: item.ID, SortOrder: item.SortOrder}
	}

	err := h.svc.Reorder(c.UserContext(), updates)
	if err != nil {
		return h.writeError(c, err, "Failed to reorder media")
	}

	return response.Success(c, fiber.Map{"updated": len(updates)}, "Media order updated successfully")
}

func (h *Handler) writeError(c *fiber.Ctx, err error, message string) error {
	var (
		verr *ValidationError
		uerr *UploadError
	)
	switch {
	case errors.As(err, &verr):
		return response.ValidationError(c, verr.Fields)
	case errors.Is(err, ErrUnsupportedFile):
		return response.BadRequest(c, "Only image and video files are allowed")
	case errors.Is(err, ErrFileTooLarge):
		return response.BadRequest(c, "File too large")
	case errors.Is(err, repository.ErrNotFound):
		return response.NotFound(c, "Media")
	case errors.As(err, &uerr):
		return response.ServerError(c, "Upload to storage failed", uerr.Err)
	default:
		return response.ServerError(c, message, err)
	}
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return defaultPage
	}
	return page
}

func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return defaultLimit
	}
	switch {
	case limit < 1:
		return 1
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}

func fileFromHeader(fh *multipart.FileHeader, src multipart.File) *File {
	return &File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Content:     src,
	}
}

// tagList decodes either a JSON array or a comma separated string.
type tagList struct {
	values []string
	set    bool
}

func (t *tagList) UnmarshalJSON(data []byte) error {
	t.set = true
	if string(data) == "null" {
		t.values = []string{}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		t.values = normalizeTags(list)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected an array of strings or a comma separated string")
	}
	t.values = parseTags([]string{s})
	return nil
}

func (t tagList) ptr() *[]string {
	if !t.set {
		return nil
	}
	values := t.values
	return &values
}

type jsonFields struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Type         *string  `json:"type"`
	URL          *string  `json:"url"`
	ThumbnailURL *string  `json:"thumbnailUrl"`
	Category     *string  `json:"category"`
	Tags         tagList  `json:"tags"`
	IsActive     *bool    `json:"isActive"`
	IsFeatured   *bool    `json:"isFeatured"`
	SortOrder    *int     `json:"sortOrder"`
	Duration     *float64 `json:"duration"`
	Keywords     tagList  `json:"keywords"`
	AltText      *string  `json:"altText"`
	SEO          *struct {
		Keywords tagList `json:"keywords"`
		AltText  *string `json:"altText"`
	} `json:"seo"`
}

func parseFields(c *fiber.Ctx) (Fields, []response.FieldError) {
	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	if strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		return parseJSONFields(c)
	}
	return parseFormFields(c)
}

func parseJSONFields(c *fiber.Ctx) (Fields, []response.FieldError) {
	var body jsonFields
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return Fields{}, []response.FieldError{{Field: "body", Message: "Invalid JSON body: " + err.Error()}}
	}

	in := Fields{
		Title:        body.Title,
		Description:  body.Description,
		Type:         body.Type,
		URL:          body.URL,
		ThumbnailURL: body.ThumbnailURL,
		Category:     body.Category,
		Tags:         body.Tags.ptr(),
		IsActive:     body.IsActive,
		IsFeatured:   body.IsFeatured,
		SortOrder:    body.SortOrder,
		Duration:     body.Duration,
		Keywords:     body.Keywords.ptr(),
		AltText:      body.AltText,
	}
	if body.SEO != nil {
		if kw := body.SEO.Keywords.ptr(); kw != nil {
			in.Keywords = kw
		}
		if body.SEO.AltText != nil {
			in.AltText = body.SEO.AltText
		}
	}
	return in, nil
}

func parseFormFields(c *fiber.Ctx) (Fields, []response.FieldError) {
	var (
		in   Fields
		errs []response.FieldError
	)

	form := formReader{c: c}
	if mf, err := c.MultipartForm(); err == nil {
		form.multipart = mf
	}

	in.Title = form.str("title")
	in.Description = form.str("description")
	in.Type = form.str("type")
	in.URL = form.str("url")
	in.ThumbnailURL = form.str("thumbnailUrl")
	in.Category = form.str("category")
	in.AltText = form.str("altText", "seo[altText]")

	if values := form.values("tags"); values != nil {
		tags := parseTags(values)
		in.Tags = &tags
	}
	if values := form.values("keywords", "seo[keywords]"); values != nil {
		keywords := parseTags(values)
		in.Keywords = &keywords
	}

	for _, flag := range []struct {
		field string
		dst   **bool
	}{
		{"isActive", &in.IsActive},
		{"isFeatured", &in.IsFeatured},
	} {
		raw := form.str(flag.field)
		if raw == nil {
			continue
		}
		v, err := strconv.ParseBool(strings.TrimSpace(*raw))
		if err != nil {
			errs = append(errs, response.FieldError{Field: flag.field, Message: flag.field + " must be true or false"})
			continue
		}
		*flag.dst = &v
	}

	if raw := form.str("sortOrder"); raw != nil {
		v, err := strconv.Atoi(strings.TrimSpace(*raw))
		if err != nil {
			errs = append(errs, response.FieldError{Field: "sortOrder", Message: "Sort order must be an integer"})
		} else {
			in.SortOrder = &v
		}
	}

	if raw := form.str("duration"); raw != nil && strings.TrimSpace(*raw) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
		if err != nil {
			errs = append(errs, response.FieldError{Field: "duration", Message: "Duration must be a number"})
		} else {
			in.Duration = &v
		}
	}

	return in, errs
}

// formReader reads multipart or urlencoded fields and tells a missing key
// from an empty one.
type formReader struct {
	c         *fiber.Ctx
	multipart *multipart.Form
}

func (f formReader) values(keys ...string) []string {
	var out []string
	for _, key := range keys {
		for _, k := range []string{key, key + "[]"} {
			if f.multipart != nil {
				out = append(out, f.multipart.Value[k]...)
				continue
			}
			for _, v := range f.c.Request().PostArgs().PeekMulti(k) {
				out = append(out, string(v))
			}
		}
	}
	return out
}

func (f formReader) str(keys ...string) *string {
	values := f.values(keys...)
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
