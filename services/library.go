package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"radisnap/types"
)

// LibraryService interface defines methods for the on-disk recording library
type LibraryService interface {
	ScanRecordings(rootPath string) ([]types.Recording, error)
	ExtractMetadata(filePath string) *types.RecordingMetadata
	ValidateFilePath(path string) error
	GetContentType(filePath string) string
}

// libraryService implements the LibraryService interface
type libraryService struct{}

// NewLibraryService creates a new library service
func NewLibraryService() LibraryService {
	return &libraryService{}
}

// ScanRecordings walks a directory for finished recordings (m4a)
func (ls *libraryService) ScanRecordings(rootPath string) ([]types.Recording, error) {
	var recordings []types.Recording

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("Error accessing path %s: %v", path, err)
			return nil // Continue walking, don't fail entire scan
		}

		ext := strings.ToLower(filepath.Ext(path))
		if info.IsDir() || ext != ".m4a" {
			return nil
		}

		relativePath, err := filepath.Rel(rootPath, path)
		if err != nil {
			relativePath = path // fallback to absolute path
		}

		recordings = append(recordings, types.Recording{
			Filename: info.Name(),
			Path:     relativePath,
			Size:     info.Size(),
			Format:   "m4a",
			Metadata: ls.ExtractMetadata(path),
		})
		return nil
	})

	if err != nil {
		return nil, err
	}
	return recordings, nil
}

// GetContentType returns the appropriate MIME type for a recording
func (ls *libraryService) GetContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".m4a":
		return "audio/mp4"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// ExtractMetadata reads the embedded tags of a recording with fallback logic
func (ls *libraryService) ExtractMetadata(filePath string) *types.RecordingMetadata {
	metadata := &types.RecordingMetadata{}

	file, err := os.Open(filePath)
	if err != nil {
		log.Printf("Warning: Could not open recording %s: %v", filePath, err)
		return ls.extractMetadataFromName(filePath)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		log.Printf("Warning: Could not parse metadata from %s: %v", filePath, err)
		return ls.extractMetadataFromName(filePath)
	}

	// The transcoder writes artist=station and album=program title.
	metadata.Title = meta.Album()
	metadata.Station = meta.Artist()
	metadata.Program = meta.Title()

	// Use filename fallback for missing fields
	if metadata.Title == "" || metadata.Station == "" {
		fallback := ls.extractMetadataFromName(filePath)
		if metadata.Title == "" {
			metadata.Title = fallback.Title
		}
		if metadata.Station == "" {
			metadata.Station = fallback.Station
		}
	}

	return metadata
}

// extractMetadataFromName derives metadata from the deterministic file name
// "{stationId}-{start}.m4a" as fallback
func (ls *libraryService) extractMetadataFromName(filePath string) *types.RecordingMetadata {
	metadata := &types.RecordingMetadata{}

	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	metadata.Title = name

	if idx := strings.LastIndex(name, "-"); idx > 0 {
		metadata.Station = name[:idx]
	}

	return metadata
}

// ValidateFilePath checks for path traversal attempts and other security issues
func (ls *libraryService) ValidateFilePath(path string) error {
	// Check for path traversal attempts
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Check for absolute paths
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("absolute paths not allowed")
	}

	// Check for empty path
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path not allowed")
	}

	return nil
}
