package button

import (
	"fmt"
	"os"
	"path/filepath"
)

// Handler is the script source run when a button event fires.
type Handler struct {
	Source string
	// Origin is the file the source was read from, empty for inline code.
	Origin string
}

// HandlerSpec is a handler as written in the layout: either inline code
// or a path to a script file.
type HandlerSpec struct {
	Code string `yaml:"code,omitempty" json:"code,omitempty"`
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// Build resolves the spec into a Handler. Relative file paths are read
// from baseDir.
func (s HandlerSpec) Build(baseDir string) (*Handler, error) {
	switch {
	case s.Code != "" && s.File != "":
		return nil, fmt.Errorf("%w: code and file are mutually exclusive", ErrInvalidHandler)
	case s.Code != "":
		return &Handler{Source: s.Code}, nil
	case s.File != "":
		path := s.File
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHandlerFile, err)
		}
		return &Handler{Source: string(data), Origin: path}, nil
	default:
		return nil, fmt.Errorf("%w: code or file is required", ErrInvalidHandler)
	}
}
