package button

import (
	"fmt"

	"github.com/nerrad567/gray-logic-deck/internal/face"
)

// Spec is a button as declared in the layout. Name is required for
// buttons in the top-level buttons list and optional inside pages.
type Spec struct {
	Name        string       `yaml:"name,omitempty" validate:"omitempty,max=128"`
	UpFace      *face.Spec   `yaml:"up_face,omitempty"`
	DownFace    *face.Spec   `yaml:"down_face,omitempty"`
	UpHandler   *HandlerSpec `yaml:"up_handler,omitempty"`
	DownHandler *HandlerSpec `yaml:"down_handler,omitempty"`
}

// Setup is a built button: rendered faces and resolved handlers, each
// optional. A Setup is never modified after it is built.
type Setup struct {
	UpFace      *face.Face
	DownFace    *face.Face
	UpHandler   *Handler
	DownHandler *Handler
}

// Face returns the face to show for the given press state. The matching
// face is preferred; if it is absent the other one is used. Nil means
// there is nothing to draw.
func (s *Setup) Face(down bool) *face.Face {
	if s == nil {
		return nil
	}
	first, second := s.UpFace, s.DownFace
	if down {
		first, second = second, first
	}
	if first != nil {
		return first
	}
	return second
}

// Handler returns the handler for the given press state, or nil.
func (s *Setup) Handler(down bool) *Handler {
	if s == nil {
		return nil
	}
	if down {
		return s.DownHandler
	}
	return s.UpHandler
}

// WithUpFace returns a copy of s with the up face replaced.
func (s *Setup) WithUpFace(f *face.Face) *Setup {
	next := Setup{}
	if s != nil {
		next = *s
	}
	next.UpFace = f
	return &next
}

// Builder turns button specs into setups.
type Builder struct {
	compositor *face.Compositor
	baseDir    string
}

// NewBuilder creates a builder. Relative handler files resolve against baseDir.
func NewBuilder(c *face.Compositor, baseDir string) *Builder {
	return &Builder{compositor: c, baseDir: baseDir}
}

// Compositor returns the compositor used for faces.
func (b *Builder) Compositor() *face.Compositor {
	return b.compositor
}

// Build renders the faces and resolves the handlers of spec.
func (b *Builder) Build(spec Spec) (*Setup, error) {
	var (
		s   Setup
		err error
	)
	if spec.UpFace != nil {
		if s.UpFace, err = b.compositor.Compose(*spec.UpFace); err != nil {
			return nil, fmt.Errorf("up_face: %w", err)
		}
	}
	if spec.DownFace != nil {
		if s.DownFace, err = b.compositor.Compose(*spec.DownFace); err != nil {
			return nil, fmt.Errorf("down_face: %w", err)
		}
	}
	if spec.UpHandler != nil {
		if s.UpHandler, err = spec.UpHandler.Build(b.baseDir); err != nil {
			return nil, fmt.Errorf("up_handler: %w", err)
		}
	}
	if spec.DownHandler != nil {
		if s.DownHandler, err = spec.DownHandler.Build(b.baseDir); err != nil {
			return nil, fmt.Errorf("down_handler: %w", err)
		}
	}
	return &s, nil
}
