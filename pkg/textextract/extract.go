package textextract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the text of one source page. Number is zero-based to match the "page"
// metadata stored with each chunk.
type Page struct {
	Number  int
	Content string
}

// PageStream yields pages one at a time so a document never has to be held in memory
// as a whole. Next returns io.EOF after the last page.
type PageStream interface {
	Next() (Page, error)
	Close() error
}

// Open returns a page stream for the file at path, chosen by extension.
func Open(path string) (PageStream, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return openPDF(path)
	case ".txt":
		return openTXT(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func SupportedTypes() []string {
	return []string{".pdf", ".txt"}
}

type pdfStream struct {
	file   *os.File
	reader *pdf.Reader
	next   int
}

func openPDF(path string) (*pdfStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat PDF: %w", err)
	}
	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read PDF: %w", err)
	}
	return &pdfStream{file: f, reader: reader, next: 1}, nil
}

func (s *pdfStream) Next() (Page, error) {
	if s.next > s.reader.NumPage() {
		return Page{}, io.EOF
	}
	num := s.next
	s.next++

	page := s.reader.Page(num)
	if page.V.IsNull() {
		return Page{Number: num - 1}, nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return Page{}, fmt.Errorf("extract page %d: %w", num, err)
	}
	return Page{Number: num - 1, Content: text}, nil
}

func (s *pdfStream) Close() error {
	return s.file.Close()
}

// txtStream treats form feeds as page breaks.
type txtStream struct {
	pages []string
	next  int
}

func openTXT(path string) (*txtStream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read TXT: %w", err)
	}
	return &txtStream{pages: strings.Split(string(data), "\f")}, nil
}

func (s *txtStream) Next() (Page, error) {
	if s.next >= len(s.pages) {
		return Page{}, io.EOF
	}
	p := Page{Number: s.next, Content: strings.TrimSpace(s.pages[s.next])}
	s.next++
	return p, nil
}

func (s *txtStream) Close() error { return nil }

// Drain reads every remaining page of s.
func Drain(s PageStream) ([]Page, error) {
	var pages []Page
	for {
		p, err := s.Next()
		if errors.Is(err, io.EOF) {
			return pages, nil
		}
		if err != nil {
			return pages, err
		}
		pages = append(pages, p)
	}
}
