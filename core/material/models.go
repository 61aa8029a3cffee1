package material

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Sources of a LectureInfo
const (
	SourceExtractor = "extractor"
	SourceHTML      = "html"
	SourceFilename  = "filename"
)

type File struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	CourseID     string    `json:"course_id,omitempty"`
	FileName     string    `json:"file_name"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Content      []byte    `json:"-"`
	UploadedAt   time.Time `json:"uploaded_at"` // UTC
}

// Upload is a file sent by a user.
type Upload struct {
	CourseID     string
	OriginalName string
	MimeType     string
	Content      []byte
}

// LectureInfo is the title and summary of a lecture material.
type LectureInfo struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
	Message string `json:"message,omitempty"`
}

// infoFromFilename is the last resort: the title is the file name up to its first dot.
func infoFromFilename(name string) LectureInfo {
	name = filepath.Base(name)
	title := strings.SplitN(name, ".", 2)[0]
	if title == "" {
		title = name
	}
	return LectureInfo{
		Title: title,
		Summary: fmt.Sprintf("Content from %s. This file contains lecture material that may include important concepts, "+
			"examples, and explanations related to the course.", name),
		Source:  SourceFilename,
		Message: "Title and summary generated from filename",
	}
}
