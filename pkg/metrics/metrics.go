package metrics

/*
Labels and so on for metrics used in stripd.
*/

const (
	LabelMethod  = "method"
	LabelRoute   = "route"
	LabelSuccess = "success"
	LabelBackend = "backend"

	// Labels for image resolution
	LabelSource = "source"
)

// Values for LabelSource: where a resolved image came from.
const (
	SourceMemo    = "memo"
	SourceStorage = "storage"
	SourceRemote  = "remote"
)
