package webot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mashangworks/webot/pkg/browser"
)

func testUploader(t *testing.T) *Uploader {
	t.Helper()
	u := NewUploader(nil, t.TempDir(), ManifestOptions{}, nil)
	u.checkPDF = func(string) error { return nil }
	return u
}

func TestStageEmpty(t *testing.T) {
	staged, err := testUploader(t).Stage(nil, "")
	require.NoError(t, err)
	assert.True(t, staged.Empty())
}

func TestStageValidFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.png")
	writeTestFile(t, a, "a")
	writeTestFile(t, b, "b")

	staged, err := testUploader(t).Stage([]string{a, b}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{a, b}, staged.Files)
	assert.Nil(t, staged.Manifest)
	assert.False(t, staged.Empty())
}

func TestStageMissingFileFailsFast(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	writeTestFile(t, good, "ok")

	_, err := testUploader(t).Stage([]string{good, filepath.Join(dir, "missing.txt")}, "")

	var fileErr *browser.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Contains(t, fileErr.Path, "missing.txt")
}

func TestStageRejectsDirectoryAsFile(t *testing.T) {
	_, err := testUploader(t).Stage([]string{t.TempDir()}, "")

	var fileErr *browser.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Contains(t, fileErr.Message, "not a regular file")
}

func TestStageDirectoryInsertsManifestFirst(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "code.go"), "package x\n")
	writeTestFile(t, filepath.Join(root, "notes.txt"), "hi")

	u := testUploader(t)
	staged, err := u.Stage(nil, root)
	require.NoError(t, err)

	require.NotNil(t, staged.Manifest)
	require.Len(t, staged.Files, 3)
	assert.Equal(t, manifestFileName, filepath.Base(staged.Files[0]))

	// The document on disk matches the manifest that was built.
	data, err := os.ReadFile(staged.Files[0])
	require.NoError(t, err)
	assert.Equal(t, staged.Manifest.Document, string(data))
}

func TestStageMissingDirectory(t *testing.T) {
	_, err := testUploader(t).Stage(nil, filepath.Join(t.TempDir(), "nope"))

	var fileErr *browser.FileError
	require.ErrorAs(t, err, &fileErr)
}

func TestStagePDFValidationIsSoft(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "broken.pdf")
	writeTestFile(t, pdf, "not really a pdf")

	u := testUploader(t)
	checked := ""
	u.checkPDF = func(path string) error {
		checked = path
		return errors.New("corrupt xref")
	}

	staged, err := u.Stage([]string{pdf}, "")
	require.NoError(t, err)
	assert.Equal(t, pdf, checked)
	assert.Equal(t, []string{pdf}, staged.Files)
}

func TestUploadAllEmptyIsNoop(t *testing.T) {
	assert.NoError(t, testUploader(t).UploadAll(&StagedUpload{}, "input[type=file]", ""))
	assert.NoError(t, testUploader(t).UploadAll(nil, "", ""))
}

func TestUploadAllRequiresSelector(t *testing.T) {
	err := testUploader(t).UploadAll(&StagedUpload{Files: []string{"x"}}, "", "")
	assert.ErrorContains(t, err, "no upload control")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want FileClass
	}{
		{"report.pdf", ClassDocument},
		{"notes.txt", ClassDocument},
		{"photo.PNG", ClassImage},
		{"pic.jpeg", ClassImage},
		{"diagram.svg", ClassImage},
		{"noext", ClassDocument},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.path), tt.path)
	}
}
