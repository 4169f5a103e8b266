package page

import (
	"fmt"
	"regexp"

	"github.com/nerrad567/gray-logic-deck/internal/window"
)

// ConditionSpec is a window condition as written in the layout.
type ConditionSpec struct {
	Title      string `yaml:"title,omitempty" json:"title,omitempty"`
	Executable string `yaml:"executable,omitempty" json:"executable,omitempty"`
	ClassName  string `yaml:"class_name,omitempty" json:"class_name,omitempty"`
}

// Condition is a compiled window condition. Nil patterns always match.
type Condition struct {
	title      *regexp.Regexp
	executable *regexp.Regexp
	class      *regexp.Regexp
}

// Compile compiles the patterns of spec.
func (s ConditionSpec) Compile() (Condition, error) {
	var (
		c   Condition
		err error
	)
	if c.title, err = compileOptional("title", s.Title); err != nil {
		return Condition{}, err
	}
	if c.executable, err = compileOptional("executable", s.Executable); err != nil {
		return Condition{}, err
	}
	if c.class, err = compileOptional("class_name", s.ClassName); err != nil {
		return Condition{}, err
	}
	return c, nil
}

func compileOptional(field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalidPattern, field, pattern, err)
	}
	return re, nil
}

// Matches reports whether every pattern present matches the window.
func (c Condition) Matches(info window.Info) bool {
	return matchOptional(c.title, info.Title) &&
		matchOptional(c.executable, info.Executable) &&
		matchOptional(c.class, info.Class)
}

func matchOptional(re *regexp.Regexp, v string) bool {
	return re == nil || re.MatchString(v)
}
