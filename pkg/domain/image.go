package domain

import (
	"image"
	"time"
)

// GeneratedImage is one carousel entry produced by a successful task.
type GeneratedImage struct {
	Name      string      `json:"name"`
	Label     string      `json:"label"`
	ModelName string      `json:"modelName"`
	ModelID   string      `json:"modelId"`
	Prompt    string      `json:"prompt"`
	FilePath  string      `json:"filePath"`
	Format    string      `json:"format"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Image     image.Image `json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ImageEntity is the persisted form of a generated image.
type ImageEntity struct {
	ImageID   string    `db:"image_id" json:"imageId"`
	UserID    string    `db:"user_id" json:"userId"`
	FilePath  string    `db:"filepath" json:"filePath"`
	Prompt    string    `db:"prompt" json:"prompt"`
	ModelName string    `db:"model_name" json:"modelName"`
	ModelID   string    `db:"model_id" json:"modelId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// GalleryItem is an image known either from the database or from the output directory.
type GalleryItem struct {
	ImageID   string    `json:"imageId"`
	FilePath  string    `json:"filePath"`
	Prompt    string    `json:"prompt"`
	ModelName string    `json:"modelName"`
	CreatedAt time.Time `json:"createdAt"`
	Indexed   bool      `json:"indexed"`
}
