package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType is the source format of an uploaded document
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeText FileType = "txt"
)

// AllFileTypes returns all supported file types
func AllFileTypes() []FileType {
	return []FileType{
		FileTypePDF,
		FileTypeText,
	}
}

// IsValid checks if the file type is supported
func (f FileType) IsValid() bool {
	switch f {
	case FileTypePDF,
		FileTypeText:
		return true
	default:
		return false
	}
}

// String returns the string representation of the file type
func (f FileType) String() string {
	return string(f)
}

// ParseFileType parses a string such as "pdf", "PDF" or ".txt" into a FileType
func ParseFileType(s string) (FileType, error) {
	ft := FileType(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if !ft.IsValid() {
		return "", fmt.Errorf("unsupported file type: %s", s)
	}
	return ft, nil
}

// FileTypeFromName detects the file type from a file name extension
func FileTypeFromName(name string) (FileType, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", fmt.Errorf("file name has no extension: %s", name)
	}
	return ParseFileType(ext)
}
