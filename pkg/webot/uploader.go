package webot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/mashangworks/webot/pkg/browser"
	"github.com/mashangworks/webot/pkg/logging"
)

// manifestFileName is the document inserted as the first attachment of a
// directory upload.
const manifestFileName = "directory_structure.md"

// FileClass routes an attachment to the matching upload control on sites
// that expose separate document and image inputs.
type FileClass int

const (
	ClassDocument FileClass = iota
	ClassImage
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".svg": true,
}

// Classify returns the upload class for a path based on its extension.
func Classify(path string) FileClass {
	if imageExts[strings.ToLower(filepath.Ext(path))] {
		return ClassImage
	}
	return ClassDocument
}

// StagedUpload is the validated attachment set for one send cycle. Files
// holds absolute paths in upload order; the manifest document, when a
// directory was attached, is always first.
type StagedUpload struct {
	Files    []string
	Manifest *Manifest
}

// Empty reports whether the cycle carries no attachments.
func (s *StagedUpload) Empty() bool {
	return s == nil || len(s.Files) == 0
}

// Uploader validates attachments and drives them through the page's file
// inputs. Staging is pure filesystem work and runs before any navigation;
// upload execution needs a live page.
type Uploader struct {
	drv *browser.Driver
	log *logging.Logger

	// outputDir receives generated manifest documents.
	outputDir string
	manifest  ManifestOptions

	checkPDF func(string) error
}

// NewUploader creates an uploader bound to a driver. outputDir is where
// generated manifest documents are written.
func NewUploader(drv *browser.Driver, outputDir string, opts ManifestOptions, log *logging.Logger) *Uploader {
	if log == nil {
		log = logging.Discard("uploader")
	}
	return &Uploader{
		drv:       drv,
		log:       log,
		outputDir: outputDir,
		manifest:  opts,
		checkPDF:  validatePDF,
	}
}

// Stage validates files and an optional directory into an upload set.
// Every path must exist and be a regular file or the whole request fails
// with *browser.FileError. The directory, when given, contributes its
// manifest document first, then its non-excluded files.
func (u *Uploader) Stage(files []string, dir string) (*StagedUpload, error) {
	staged := &StagedUpload{}

	if dir != "" {
		m, err := BuildManifest(dir, u.manifest)
		if err != nil {
			return nil, &browser.FileError{Path: dir, Message: "cannot build directory manifest", Err: err}
		}
		docPath, err := u.writeManifest(m)
		if err != nil {
			return nil, err
		}
		u.log.Infof("directory %s: %d files, %s, ~%d tokens",
			m.Root, m.FileCount, formatSize(m.TotalSize), m.TokenEstimate)

		staged.Manifest = m
		staged.Files = append(staged.Files, docPath)
		staged.Files = append(staged.Files, m.Files...)
	}

	for _, file := range files {
		abs, err := u.validateFile(file)
		if err != nil {
			return nil, err
		}
		staged.Files = append(staged.Files, abs)
	}
	return staged, nil
}

func (u *Uploader) validateFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &browser.FileError{Path: path, Message: "cannot resolve path", Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &browser.FileError{Path: path, Message: "file does not exist", Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", &browser.FileError{Path: path, Message: "not a regular file"}
	}

	if strings.EqualFold(filepath.Ext(abs), ".pdf") {
		// A structurally broken PDF uploads fine but renders as garbage
		// on the far side. Worth a warning, never a failure.
		if err := u.checkPDF(abs); err != nil {
			u.log.Warnf("pdf %s failed validation: %v", abs, err)
		}
	}
	return abs, nil
}

func (u *Uploader) writeManifest(m *Manifest) (string, error) {
	if err := os.MkdirAll(u.outputDir, 0o755); err != nil {
		return "", &browser.FileError{Path: u.outputDir, Message: "cannot create output directory", Err: err}
	}
	path := filepath.Join(u.outputDir, manifestFileName)
	if err := os.WriteFile(path, []byte(m.Document), 0o644); err != nil {
		return "", &browser.FileError{Path: path, Message: "cannot write manifest document", Err: err}
	}
	return path, nil
}

// UploadAll stages every file through the page. docSelector is required;
// imageSelector, when non-empty, receives image-class attachments
// instead. Per-file confirmation is soft: a file the input accepted
// counts as uploaded even when it cannot be spotted on the page after.
func (u *Uploader) UploadAll(staged *StagedUpload, docSelector, imageSelector string) error {
	if staged.Empty() {
		return nil
	}
	if docSelector == "" {
		return fmt.Errorf("no upload control configured")
	}

	uploaded := 0
	for _, file := range staged.Files {
		selector := docSelector
		if imageSelector != "" && Classify(file) == ClassImage {
			selector = imageSelector
		}

		if !u.drv.UploadFile(selector, file) {
			u.log.Warnf("upload control rejected %s", file)
			continue
		}
		uploaded++

		if u.confirmVisible(filepath.Base(file)) {
			u.log.Debugf("upload confirmed on page: %s", filepath.Base(file))
		} else {
			u.log.Debugf("upload not confirmed on page (continuing): %s", filepath.Base(file))
		}
	}

	u.log.Infof("uploaded %d/%d attachments", uploaded, len(staged.Files))
	return nil
}

// confirmVisible looks for the file name anywhere in the rendered page.
func (u *Uploader) confirmVisible(name string) bool {
	result, err := u.drv.Evaluate(fmt.Sprintf(
		`document.body ? document.body.innerText.includes(%q) : false`, name))
	if err != nil {
		return false
	}
	visible, ok := result.(bool)
	return ok && visible
}

// validatePDF runs a relaxed structural check over a PDF attachment.
func validatePDF(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return pdfapi.ValidateFile(path, conf)
}
