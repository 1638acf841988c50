package models

import (
	"time"

	"gorm.io/datatypes"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

func (t MediaType) Valid() bool {
	return t == MediaTypeImage || t == MediaTypeVideo
}

type Category string

const (
	CategoryShowreel     Category = "showreel"
	CategoryPortfolio    Category = "portfolio"
	CategoryDemo         Category = "demo"
	CategoryTutorial     Category = "tutorial"
	CategoryBehindScenes Category = "behind-scenes"
	CategoryAIGeneration Category = "ai-generation"
)

var Categories = []Category{
	CategoryShowreel,
	CategoryPortfolio,
	CategoryDemo,
	CategoryTutorial,
	CategoryBehindScenes,
	CategoryAIGeneration,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	UploadSourceFile = "file-upload"
	UploadSourceURL  = "url"

	QualityHigh   = "high"
	QualityMedium = "medium"
)

type Media struct {
	ID                 string                      `gorm:"primaryKey;size:36" json:"_id" bson:"_id"`
	Title              string                      `gorm:"size:200;not null" json:"title" bson:"title"`
	Description        string                      `gorm:"type:text" json:"description,omitempty" bson:"description,omitempty"`
	Type               MediaType                   `gorm:"size:10;not null;index" json:"type" bson:"type"`
	URL                string                      `gorm:"size:1000;not null" json:"url" bson:"url"`
	ThumbnailURL       string                      `gorm:"size:1000" json:"thumbnailUrl,omitempty" bson:"thumbnailUrl,omitempty"`
	Category           Category                    `gorm:"size:30;not null;default:showreel;index" json:"category" bson:"category"`
	Tags               datatypes.JSONSlice[string] `json:"tags" bson:"tags"`
	IsActive           bool                        `gorm:"not null;index" json:"isActive" bson:"isActive"`
	IsFeatured         bool                        `gorm:"not null;default:false;index" json:"isFeatured" bson:"isFeatured"`
	SortOrder          int                         `gorm:"not null;default:0" json:"sortOrder" bson:"sortOrder"`
	ViewCount          int64                       `gorm:"not null;default:0" json:"viewCount" bson:"viewCount"`
	ClickCount         int64                       `gorm:"not null;default:0" json:"clickCount" bson:"clickCount"`
	UploadedBy         string                      `gorm:"size:36;index" json:"uploadedBy" bson:"uploadedBy"`
	Uploader           *UserSummary                `gorm:"-" json:"uploader,omitempty" bson:"-"`
	CloudinaryPublicID string                      `gorm:"size:255" json:"cloudinaryPublicId,omitempty" bson:"cloudinaryPublicId,omitempty"`
	ThumbnailPublicID  string                      `gorm:"size:255" json:"-" bson:"thumbnailPublicId,omitempty"`
	StorageProvider    string                      `gorm:"size:20" json:"storageProvider,omitempty" bson:"storageProvider,omitempty"`
	FileSize           int64                       `json:"fileSize,omitempty" bson:"fileSize,omitempty"`
	MimeType           string                      `gorm:"size:100" json:"mimeType,omitempty" bson:"mimeType,omitempty"`
	Width              *int                        `json:"width,omitempty" bson:"width,omitempty"`
	Height             *int                        `json:"height,omitempty" bson:"height,omitempty"`
	Duration           *float64                    `json:"duration,omitempty" bson:"duration,omitempty"`
	Metadata           MediaMetadata               `gorm:"embedded;embeddedPrefix:meta_" json:"metadata" bson:"metadata"`
	SEO                MediaSEO                    `gorm:"embedded;embeddedPrefix:seo_" json:"seo" bson:"seo"`
	CreatedAt          time.Time                   `gorm:"index" json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time                   `json:"updatedAt" bson:"updatedAt"`
}

func (Media) TableName() string {
	return "media"
}

type MediaMetadata struct {
	UploadSource string `gorm:"size:20" json:"uploadSource" bson:"uploadSource"`
	OriginalName string `gorm:"size:255" json:"originalName,omitempty" bson:"originalName,omitempty"`
	Quality      string `gorm:"size:20" json:"quality" bson:"quality"`
}

type MediaSEO struct {
	Keywords datatypes.JSONSlice[string] `json:"keywords" bson:"keywords"`
	AltText  string                      `gorm:"size:255" json:"altText" bson:"altText"`
}

// MediaStats is the aggregate served by the admin overview endpoint.
type MediaStats struct {
	TotalMedia    int64              `json:"totalMedia"`
	TotalImages   int64              `json:"totalImages"`
	TotalVideos   int64              `json:"totalVideos"`
	ActiveMedia   int64              `json:"activeMedia"`
	FeaturedMedia int64              `json:"featuredMedia"`
	TotalViews    int64              `json:"totalViews"`
	TotalClicks   int64              `json:"totalClicks"`
	TotalBytes    int64              `json:"totalBytes"`
	RecentUploads int64              `json:"recentUploads"`
	ByCategory    map[Category]int64 `json:"byCategory"`
	StorageMode   string             `json:"storageMode,omitempty"`
}
