package attachment

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// FileAttachment is the metadata record of an uploaded file. SaveMode names
// the file handler that holds the bytes; Path is the key that handler uses.
type FileAttachment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	FileExt    string    `gorm:"size:32;index" json:"file_ext"`
	Length     int64     `gorm:"not null" json:"length"`
	Path       string    `gorm:"size:1024" json:"path,omitempty"`
	SaveMode   string    `gorm:"size:64;index" json:"save_mode"`
	UploadTime time.Time `gorm:"not null;index" json:"upload_time"`
	ExtraInfo  string    `gorm:"type:text" json:"extra_info,omitempty"`

	// Data is populated only when the payload is explicitly requested.
	Data []byte `gorm:"-" json:"-"`
}

// TableName overrides the gorm table name.
func (FileAttachment) TableName() string { return "file_attachments" }

// New creates a record for fileName with a fresh id and upload time.
func New(fileName string, now time.Time) *FileAttachment {
	return &FileAttachment{
		ID:         uuid.New(),
		FileName:   fileName,
		FileExt:    NormalizeExt(fileName),
		UploadTime: now.UTC(),
	}
}

// HumanLength renders Length for logs and listings, e.g. "1.5 MB".
func (f *FileAttachment) HumanLength() string {
	if f.Length <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(f.Length))
}

// NormalizeExt returns the lower-cased extension of name including the dot,
// or "" when there is none.
func NormalizeExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "." {
		return ""
	}
	return strings.ToLower(ext)
}

// FileBlob stores the bytes of an attachment saved in the database.
type FileBlob struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Data []byte    `gorm:"not null"`
}

// TableName overrides the gorm table name.
func (FileBlob) TableName() string { return "file_blobs" }

// Models returns every model to auto-migrate.
func Models() []interface{} {
	return []interface{}{&FileAttachment{}, &FileBlob{}}
}
