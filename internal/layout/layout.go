package layout

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-deck/internal/button"
	"github.com/nerrad567/gray-logic-deck/internal/face"
	"github.com/nerrad567/gray-logic-deck/internal/page"
)

// ErrInvalid is returned when a layout fails validation.
var ErrInvalid = errors.New("layout: invalid")

// Layout is the validated deck layout.
type Layout struct {
	Defaults     *face.DefaultsSpec  `yaml:"defaults,omitempty"`
	Font         string              `yaml:"font,omitempty"`
	Buttons      []button.Spec       `yaml:"buttons,omitempty" validate:"dive"`
	Pages        []page.Spec         `yaml:"pages" validate:"dive"`
	DefaultPages []string            `yaml:"default_pages,omitempty" validate:"dive,required"`
	InitScript   *button.HandlerSpec `yaml:"init_script,omitempty"`

	// BaseDir is the directory relative paths resolve against.
	BaseDir string `yaml:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads, parses and validates the layout file at path.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path) //nolint:gosec // layout path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading layout file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving layout path: %w", err)
	}
	return Parse(data, filepath.Dir(abs))
}

// Parse decodes and validates layout YAML. Unknown keys are rejected.
func Parse(data []byte, baseDir string) (*Layout, error) {
	l := &Layout{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(l); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	l.BaseDir = baseDir

	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the layout for structural and referential problems.
func (l *Layout) Validate() error {
	var errs []string

	if err := validate.Struct(l); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	buttonNames := make(map[string]bool, len(l.Buttons))
	for i, b := range l.Buttons {
		switch {
		case b.Name == "":
			errs = append(errs, fmt.Sprintf("buttons[%d]: name is required", i))
		case buttonNames[b.Name]:
			errs = append(errs, fmt.Sprintf("buttons[%d]: duplicate name %q", i, b.Name))
		}
		buttonNames[b.Name] = true
		errs = append(errs, checkHandlers(fmt.Sprintf("buttons[%d]", i), b)...)
	}

	pageNames := make(map[string]bool, len(l.Pages))
	for i, p := range l.Pages {
		if pageNames[p.Name] {
			errs = append(errs, fmt.Sprintf("pages[%d]: duplicate name %q", i, p.Name))
		}
		pageNames[p.Name] = true
		for j, pb := range p.Buttons {
			if pb.Button.Setup != nil {
				errs = append(errs, checkHandlers(fmt.Sprintf("pages[%d].buttons[%d]", i, j), *pb.Button.Setup)...)
			}
		}
	}

	for i, name := range l.DefaultPages {
		if name != "" && !pageNames[name] {
			errs = append(errs, fmt.Sprintf("default_pages[%d]: unknown page %q", i, name))
		}
	}

	if l.InitScript != nil {
		if msg := checkHandler(*l.InitScript); msg != "" {
			errs = append(errs, "init_script: "+msg)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// Path resolves p against the layout directory.
func (l *Layout) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || l.BaseDir == "" {
		return p
	}
	return filepath.Join(l.BaseDir, p)
}

func checkHandlers(where string, b button.Spec) []string {
	var errs []string
	handlers := []struct {
		name string
		spec *button.HandlerSpec
	}{
		{"up_handler", b.UpHandler},
		{"down_handler", b.DownHandler},
	}
	for _, h := range handlers {
		if h.spec == nil {
			continue
		}
		if msg := checkHandler(*h.spec); msg != "" {
			errs = append(errs, fmt.Sprintf("%s.%s: %s", where, h.name, msg))
		}
	}
	return errs
}

func checkHandler(h button.HandlerSpec) string {
	switch {
	case h.Code == "" && h.File == "":
		return "code or file is required"
	case h.Code != "" && h.File != "":
		return "code and file are mutually exclusive"
	}
	return ""
}
