package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/common"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error

	calls []string
	// sawInput records the bytes of the temp file passed before the last arg.
	sawInput []byte
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, name+" "+strings.Join(args, " "))
	if len(args) >= 2 {
		if b, err := os.ReadFile(args[len(args)-2]); err == nil {
			s.sawInput = b
		}
	}
	return s.stdout, s.stderr, s.err
}

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_PDF(t *testing.T) {
	r := &stubRunner{stdout: []byte("CS 350   Syllabus\r\nMidterm: Feb 12\fFinal: Apr 30\f")}
	e := NewExtractor(Config{}, r, nil)

	p, err := e.Extract(context.Background(), entity.Document{Name: "s.pdf", MIME: constants.MIMEPDF, Data: []byte("%PDF-1.7")})
	require.NoError(t, err)

	assert.Equal(t, MethodPDFText, p.Method)
	assert.Equal(t, 2, p.Pages)
	assert.Equal(t, "CS 350 Syllabus\nMidterm: Feb 12\nFinal: Apr 30", p.Text)
	assert.Nil(t, p.Image)
	require.Len(t, r.calls, 1)
	assert.True(t, strings.HasPrefix(r.calls[0], "pdftotext -layout -enc UTF-8 -eol unix "))
	assert.Equal(t, []byte("%PDF-1.7"), r.sawInput)
}

func TestExtract_PDFFailures(t *testing.T) {
	t.Run("runner error", func(t *testing.T) {
		r := &stubRunner{stderr: []byte("Syntax Error: Couldn't find trailer dictionary"), err: errors.New("exit status 1")}
		e := NewExtractor(Config{}, r, nil)
		_, err := e.Extract(context.Background(), entity.Document{MIME: constants.MIMEPDF, Data: []byte("junk")})
		require.Error(t, err)
		assert.Equal(t, common.KindExtractionFailed, common.KindOf(err))
		assert.Equal(t, "Could not extract text from this file. It may be corrupted or empty.", common.UserMessage(err))
	})

	t.Run("image-only pdf", func(t *testing.T) {
		r := &stubRunner{stdout: []byte("  \n\f\n")}
		e := NewExtractor(Config{}, r, nil)
		_, err := e.Extract(context.Background(), entity.Document{MIME: constants.MIMEPDF, Data: []byte("%PDF")})
		require.Error(t, err)
		assert.Equal(t, common.KindExtractionEmpty, common.KindOf(err))
		assert.Equal(t, "Could not extract text from this file. It may be image-based or empty.", common.UserMessage(err))
	})
}

func TestExtract_DOCX(t *testing.T) {
	doc := buildDOCX(t,
		`<w:p><w:r><w:t>MATH 201</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t xml:space="preserve">Homework 1 </w:t></w:r><w:r><w:t>due Jan 30</w:t></w:r></w:p>`+
			`<w:p></w:p><w:p></w:p>`+
			`<w:p><w:r><w:t>Quiz</w:t><w:tab/><w:t>Feb 3</w:t></w:r></w:p>`)

	e := NewExtractor(Config{}, &stubRunner{}, nil)
	p, err := e.Extract(context.Background(), entity.Document{MIME: constants.MIMEDOCX, Data: doc})
	require.NoError(t, err)

	assert.Equal(t, MethodDOCX, p.Method)
	assert.Equal(t, "MATH 201\n\nHomework 1 due Jan 30\n\nQuiz Feb 3", p.Text)
}

func TestExtract_DOCXCorrupt(t *testing.T) {
	e := NewExtractor(Config{}, &stubRunner{}, nil)
	_, err := e.Extract(context.Background(), entity.Document{MIME: constants.MIMEDOCX, Data: []byte("not a zip")})
	require.Error(t, err)
	assert.Equal(t, common.KindExtractionFailed, common.KindOf(err))
}

func TestExtract_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Week"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Due"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 1))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "HW 1, part a"))
	_, err := f.NewSheet("Exams")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Exams", "A1", "Midterm"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	e := NewExtractor(Config{}, &stubRunner{}, nil)
	p, err := e.Extract(context.Background(), entity.Document{MIME: constants.MIMEXLSX, Data: buf.Bytes()})
	require.NoError(t, err)

	assert.Equal(t, MethodXLSX, p.Method)
	assert.Equal(t, 2, p.Pages)
	assert.Equal(t, "--- Sheet1 ---\nWeek,Due\n1,\"HW 1, part a\"\n--- Exams ---\nMidterm", p.Text)
}

func TestExtract_LegacyXLSIsExtractionFailure(t *testing.T) {
	e := NewExtractor(Config{}, &stubRunner{}, nil)
	_, err := e.Extract(context.Background(), entity.Document{MIME: constants.MIMEXLS, Data: []byte{0xD0, 0xCF, 0x11, 0xE0}})
	require.Error(t, err)
	assert.Equal(t, common.KindExtractionFailed, common.KindOf(err))
}

func TestExtract_ImagePassthrough(t *testing.T) {
	r := &stubRunner{}
	e := NewExtractor(Config{}, r, nil)

	p, err := e.Extract(context.Background(), entity.Document{MIME: "image/PNG", Data: []byte{0x89, 'P', 'N', 'G'}})
	require.NoError(t, err)
	require.NotNil(t, p.Image)
	assert.Equal(t, "", p.Text)
	assert.Equal(t, MethodImage, p.Method)
	assert.Equal(t, constants.MIMEPNG, p.Image.MIME)
	assert.Equal(t, "data:image/png;base64,iVBORw==", p.Image.DataURL)

	// no converter configured: HEIC bytes go out untouched
	p, err = e.Extract(context.Background(), entity.Document{MIME: constants.MIMEHEIC, Data: []byte("heic")})
	require.NoError(t, err)
	assert.Equal(t, constants.MIMEHEIC, p.Image.MIME)
	assert.Empty(t, r.calls)
}

func TestExtract_HEICConverterFailureFallsBack(t *testing.T) {
	r := &stubRunner{err: errors.New("exit status 1"), stderr: []byte("no decoder")}
	e := NewExtractor(Config{HeicConverter: "magick"}, r, nil)

	p, err := e.Extract(context.Background(), entity.Document{MIME: constants.MIMEHEIF, Data: []byte("heif")})
	require.NoError(t, err)
	require.Len(t, r.calls, 1)
	assert.True(t, strings.HasPrefix(r.calls[0], "magick "))
	assert.Equal(t, constants.MIMEHEIF, p.Image.MIME)
	assert.NotEmpty(t, p.Warnings)
}

func TestExtract_Unsupported(t *testing.T) {
	e := NewExtractor(Config{}, &stubRunner{}, nil)
	_, err := e.Extract(context.Background(), entity.Document{MIME: "text/html", Data: []byte("<p>")})
	require.Error(t, err)
	assert.Equal(t, common.KindUnsupportedType, common.KindOf(err))
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                             "",
		"a\r\nb":                       "a\nb",
		"a\t\tb   c  ":                 "a b c",
		"one\n\n\n\n\ntwo":             "one\n\ntwo",
		"  lead\n  \n\n \n\n trail  ":   "lead\n\n trail",
		"already\n\nclean":             "already\n\nclean",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}
