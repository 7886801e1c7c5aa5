package proto

import "time"

// FileInput is one file uploaded through IngestFiles.
type FileInput struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data"`
}

// File describes an ingested file.
type File struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	CategoryId  string    `json:"categoryId"`
	Preview     string    `json:"preview,omitempty"`
	AddedAt     time.Time `json:"addedAt"`
}

// Category is a category with the number of files it holds.
type Category struct {
	Id         string   `json:"id"`
	Name       string   `json:"name"`
	Icon       string   `json:"icon"`
	IconKind   string   `json:"iconKind"`
	Extensions []string `json:"extensions"`
	Count      int32    `json:"count"`
}

type IngestFilesRequest struct {
	Files []FileInput `json:"files"`
}

type IngestFilesResponse struct {
	Files []File `json:"files"`
}

type ListFilesRequest struct {
	// CategoryId filters the listing; empty lists every file.
	CategoryId string `json:"categoryId,omitempty"`
}

type ListFilesResponse struct {
	Files []File `json:"files"`
	Total int32  `json:"total"`
}

type GetFileRequest struct {
	Id string `json:"id"`
}

type GetFileResponse struct {
	File File `json:"file"`
}

type DeleteFileRequest struct {
	Id string `json:"id"`
}

type DeleteFileResponse struct {
	Deleted bool `json:"deleted"`
}

type ListCategoriesRequest struct{}

type ListCategoriesResponse struct {
	Categories []Category `json:"categories"`
}

type AddCategoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
	// Extensions is a comma separated list, e.g. ".psd, ai".
	Extensions string `json:"extensions"`
}

type AddCategoryResponse struct {
	Category Category `json:"category"`
}

type GetThemeRequest struct{}

type SetThemeRequest struct {
	Theme  string `json:"theme,omitempty"`
	Toggle bool   `json:"toggle,omitempty"`
}

type ThemeResponse struct {
	Theme string `json:"theme"`
}
