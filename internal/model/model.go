// Package model provides data-structs for internal app-usage
package model

import (
	"image"

	"github.com/google/uuid"
)

type (
	Status       string
	DeliveryMode string
	ExportFormat string
	OriginalMode string
)

const (
	StatusValidated           Status = "validated"
	StatusNormalized          Status = "normalized"
	StatusDerivativesPending  Status = "derivatives_pending"
	StatusDerivativesComplete Status = "derivatives_complete"
	StatusDelivered           Status = "delivered"
	StatusReported            Status = "reported"
	StatusFailed              Status = "failed"
)

const (
	DeliveryLocal  DeliveryMode = "local"
	DeliveryRemote DeliveryMode = "remote"
)

const (
	ExportPNG  ExportFormat = "png"
	ExportWEBP ExportFormat = "webp"
	ExportJPEG ExportFormat = "jpeg"
)

const (
	// OriginalPassthrough stores the source bytes verbatim.
	OriginalPassthrough OriginalMode = "passthrough"
	// OriginalReencode decodes and re-saves the source in its own format.
	OriginalReencode OriginalMode = "reencode"
)

//---------------------

// DerivativeSpec - named size tier with its square bounding box
type DerivativeSpec struct {
	Tier string
	BoxW int
	BoxH int
}

// Tiers - static tier table, declared order is the report order
var Tiers = []DerivativeSpec{
	{Tier: "t", BoxW: 100, BoxH: 100},
	{Tier: "s", BoxW: 300, BoxH: 300},
	{Tier: "m", BoxW: 500, BoxH: 500},
	{Tier: "l", BoxW: 800, BoxH: 800},
	{Tier: "xl", BoxW: 1000, BoxH: 1000},
	{Tier: "xxl", BoxW: 1200, BoxH: 1200},
}

//---------------------

// SourceImage - one decoded upload, immutable after validation
type SourceImage struct {
	Filename string
	Stem     string
	Ext      string // original extension without the dot, lowercased
	Raw      []byte
	Decoded  image.Image
	Width    int
	Height   int
	Format   string // as detected by the decoder: "png", "jpeg", "webp"...
}

// DerivativeResult - one encoded derivative, consumed by exactly one sink-write
type DerivativeResult struct {
	Tier   string
	Width  int
	Height int
	Data   []byte
	Size   int64
}

// SinkTarget - delivery destination, tagged by Mode. Carries no resizing logic.
type SinkTarget struct {
	Mode      DeliveryMode
	Bucket    string // remote only
	KeyPrefix string // remote only
}

// ObjectLocation - where one remote write landed
type ObjectLocation struct {
	Key    string `json:"key"`
	Bucket string `json:"bucket"`
}

//---------------------

// ProcessRequest - raw caller-supplied parameters before normalization
type ProcessRequest struct {
	Files      []UploadedFile
	Mode       string
	ExportType string
	KeyPrefix  string
}

// BatchRequest - normalized parameters of one batch
type BatchRequest struct {
	Files        []UploadedFile
	ExportFormat ExportFormat
	Target       SinkTarget
}

type UploadedFile struct {
	Filename string
	Data     []byte
}

// DerivativeInfo - public metadata of one derivative in the report
type DerivativeInfo struct {
	Filename string `json:"filename"`
	Tier     string `json:"size_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size_bytes"`
	Location string `json:"location,omitempty"`
}

// ImageReport - per-source-image record, never mutated after assembly
type ImageReport struct {
	SourceFilename   string           `json:"filename"`
	OriginalWidth    int              `json:"original_width"`
	OriginalHeight   int              `json:"original_height"`
	OriginalLocation string           `json:"original_location,omitempty"`
	Derivatives      []DerivativeInfo `json:"processed_images"`
}

// BatchReport - final payload for remote mode and the kafka completion-event body
type BatchReport struct {
	BatchID uuid.UUID     `json:"batch_id"`
	Message string        `json:"message"`
	Files   []ImageReport `json:"files"`
}

// BatchResult - what the service hands back to transport: exactly one of the
// two deliverables is set, according to the sink variant.
type BatchResult struct {
	Archive []byte
	Report  *BatchReport
}

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	WEBP = "image/webp"
	ZIP  = "application/zip"
)

// GetContentType - content-type per export format
var GetContentType = map[ExportFormat]string{
	ExportPNG:  PNG,
	ExportJPEG: JPEG,
	ExportWEBP: WEBP,
}

// PassthroughExtMap - extensions allowed for persisting the original alongside derivatives
var PassthroughExtMap = map[string]bool{
	"png":  true,
	"webp": true,
	"jpg":  true,
	"jpeg": true,
}

// ExtContentType - content-type of the original passthrough by its extension
var ExtContentType = map[string]string{
	"png":  PNG,
	"webp": WEBP,
	"jpg":  JPEG,
	"jpeg": JPEG,
}
