package domain

// FileType represents the document formats accepted for extraction.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// ResultStatus is the verdict recorded for a single document.
type ResultStatus string

const (
	ResultStatusPassed ResultStatus = "passed"
	ResultStatusFailed ResultStatus = "failed"
)

// FailureReason classifies why a document ended up on the failure path.
type FailureReason string

const (
	FailureReasonNone              FailureReason = ""
	FailureReasonExternalService   FailureReason = "external_service"
	FailureReasonParseError        FailureReason = "parse_error"
	FailureReasonStructureError    FailureReason = "structure_error"
	FailureReasonToleranceExceeded FailureReason = "tolerance_exceeded"
)
