package window

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts is a font stack: glyphs missing from a font fall through to the
// next one, ending with the embedded Go font.
type Fonts struct {
	sources []*text.GoTextFaceSource
	faces   map[float64]text.Face
}

// LoadFonts loads every readable font file in stack, in order. Unreadable
// entries are skipped and reported in the returned error; the stack is
// usable either way.
func LoadFonts(stack []string) (*Fonts, error) {
	f := &Fonts{faces: make(map[float64]text.Face)}

	var errs []error
	for _, path := range stack {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("font %s: %w", path, err))
			continue
		}
		src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
		if err != nil {
			errs = append(errs, fmt.Errorf("font %s: %w", path, err))
			continue
		}
		f.sources = append(f.sources, src)
	}

	fallback, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("fallback font: %w", err)
	}
	f.sources = append(f.sources, fallback)
	return f, errors.Join(errs...)
}

// Face returns the stack at the given size.
func (f *Fonts) Face(size float64) text.Face {
	if face, ok := f.faces[size]; ok {
		return face
	}

	faces := make([]text.Face, len(f.sources))
	for i, src := range f.sources {
		faces[i] = &text.GoTextFace{Source: src, Size: size}
	}
	var face text.Face = faces[0]
	if len(faces) > 1 {
		if multi, err := text.NewMultiFace(faces...); err == nil {
			face = multi
		}
	}
	f.faces[size] = face
	return face
}

// MeasureText implements draw.Measurer.
func (f *Fonts) MeasureText(s string, size float64) float64 {
	return text.Advance(s, f.Face(size))
}
