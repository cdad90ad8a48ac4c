package http

const (
	Ping    = "Ping"
	Version = "Version"

	Load    = "Load"
	Columns = "Columns"
	Page    = "Page"

	Delete      = "Delete"
	MoveToStart = "MoveToStart"
	MoveToEnd   = "MoveToEnd"

	Save   = "Save"
	Export = "Export"
	Image  = "Image"
)
