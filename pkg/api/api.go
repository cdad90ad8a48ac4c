package api

import (
	"context"
)

// Image is one entry in a row's image strip.
type Image struct {
	// Position in the strip, from the left
	Position int `json:"position"`
	// ImageIndex is the index into the row's image list, which is
	// what a delete refers to
	ImageIndex int    `json:"imageIndex"`
	Reference  string `json:"reference"`
	Digest     string `json:"digest"`
	Available  bool   `json:"available"`
	// Size in bytes, if known
	Size  *int64 `json:"size,omitempty"`
	Error string `json:"error,omitempty"`
}

// Row is a table row as the operator sees it.
type Row struct {
	Index   int     `json:"index"`
	Article string  `json:"article"`
	Images  []Image `json:"images"`
}

type Page struct {
	Page      int   `json:"page"`
	Pages     int   `json:"pages"`
	PageSize  int   `json:"pageSize"`
	TotalRows int   `json:"totalRows"`
	Start     int   `json:"start"`
	End       int   `json:"end"`
	Rows      []Row `json:"rows"`
}

// Columns describes the loaded table.
type Columns struct {
	Path               string   `json:"path"`
	Header             []string `json:"header"`
	ImageColumns       []string `json:"imageColumns"`
	DisplayColumn      string   `json:"displayColumn"`
	DisplayColumnFound bool     `json:"displayColumnFound"`
	Rows               int      `json:"rows"`
	Pages              int      `json:"pages"`
}

type SaveResult struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

type Upstream interface {
	Ping(context.Context) error
	Version(context.Context) (string, error)
}

// Server is everything stripd does for a connecting client.
type Server interface {
	Upstream

	// Load replaces the table with the one at path; an empty path
	// reloads the configured file.
	Load(ctx context.Context, path string) (Columns, error)
	Columns(context.Context) (Columns, error)
	Page(ctx context.Context, page int) (Page, error)

	Delete(ctx context.Context, row, imageIndex int) (Row, error)
	MoveToStart(ctx context.Context, row, position int) (Row, error)
	MoveToEnd(ctx context.Context, row, position int) (Row, error)

	Save(context.Context) (SaveResult, error)
	Export(context.Context) ([]byte, error)

	// Image returns the PNG encoding of a resolved image.
	Image(ctx context.Context, digest string) ([]byte, error)
}
