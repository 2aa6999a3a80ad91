package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/bubble2video/internal/frame"
)

var (
	// ErrNotFound is returned when the asset path does not exist.
	ErrNotFound = errors.New("asset not found")
	// ErrUnreadable is returned when the asset exists but cannot be decoded.
	ErrUnreadable = errors.New("asset unreadable")
)

type Source interface {
	PageCount() int
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks a source implementation by file extension.
func Open(path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w: %v", path, ErrUnreadable, err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		src, err := NewFitzPDFSource(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrUnreadable, err)
		}
		return src, nil
	}
	src, err := NewImageSource(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrUnreadable, err)
	}
	return src, nil
}

// Load decodes one page of path into a frame. It either returns a complete
// frame or an error wrapping ErrNotFound / ErrUnreadable.
func Load(path string, page, dpi int) (*frame.Frame, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if page < 0 || page >= src.PageCount() {
		return nil, fmt.Errorf("%s: page %d of %d: %w", path, page+1, src.PageCount(), ErrUnreadable)
	}

	img, err := src.RenderPage(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrUnreadable, err)
	}
	f := frame.FromImage(img)
	if f.Empty() {
		return nil, fmt.Errorf("%s: empty image: %w", path, ErrUnreadable)
	}
	return f, nil
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if dpi <= 0 {
		dpi = 72
	}
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
