package browser

import (
	"os"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Basic page operations used by the bots. Each returns a wrapped error so
// callers see what was being attempted; none of these retry.

// Goto navigates the page to the given URL.
func (d *Driver) Goto(url string) error {
	page, err := d.Page()
	if err != nil {
		return err
	}
	if _, err := page.Goto(url); err != nil {
		return sessionErrorf(err, "navigation failed: %s", url)
	}
	return nil
}

// URL returns the current page URL, or "" before Start.
func (d *Driver) URL() string {
	if d.page == nil {
		return ""
	}
	return d.page.URL()
}

// Fill replaces the content of the element matching selector.
func (d *Driver) Fill(selector, text string) error {
	page, err := d.Page()
	if err != nil {
		return err
	}
	return page.Fill(selector, text)
}

// Type enters text into the element with simulated keystrokes.
func (d *Driver) Type(selector, text string, delayMs float64) error {
	page, err := d.Page()
	if err != nil {
		return err
	}
	opts := playwright.PageTypeOptions{}
	if delayMs > 0 {
		opts.Delay = playwright.Float(delayMs)
	}
	return page.Type(selector, text, opts)
}

// Click clicks the element matching selector.
func (d *Driver) Click(selector string) error {
	page, err := d.Page()
	if err != nil {
		return err
	}
	return page.Click(selector)
}

// Press sends a single key press to the page.
func (d *Driver) Press(key string) error {
	page, err := d.Page()
	if err != nil {
		return err
	}
	return page.Keyboard().Press(key)
}

// WaitForSelector waits for an element to appear, bounded by timeoutMs.
func (d *Driver) WaitForSelector(selector string, timeoutMs float64) error {
	page, err := d.Page()
	if err != nil {
		return err
	}
	_, err = page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(timeoutMs),
	})
	if err != nil {
		return sessionErrorf(err, "timed out waiting for element %s", selector)
	}
	return nil
}

// WaitForURL waits for the page URL to match, bounded by timeoutMs.
func (d *Driver) WaitForURL(url string, timeoutMs float64) error {
	page, err := d.Page()
	if err != nil {
		return err
	}
	if err := page.WaitForURL(url, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(timeoutMs),
	}); err != nil {
		return sessionErrorf(err, "timed out waiting for URL %s", url)
	}
	return nil
}

// WaitForLoadState waits for the page to reach network idle.
func (d *Driver) WaitForNetworkIdle() error {
	page, err := d.Page()
	if err != nil {
		return err
	}
	return page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
}

// Evaluate runs a JavaScript expression in the page.
func (d *Driver) Evaluate(expression string) (interface{}, error) {
	page, err := d.Page()
	if err != nil {
		return nil, err
	}
	return page.Evaluate(expression)
}

// Sleep blocks for the given number of milliseconds on the page's clock.
func (d *Driver) Sleep(ms float64) {
	if d.page != nil {
		d.page.WaitForTimeout(ms)
	}
}

// UploadFiles validates each path and sets all of them on the file input
// matching selector. Validation failures return a *FileError before any
// file is staged.
func (d *Driver) UploadFiles(selector string, files []string) error {
	if len(files) == 0 {
		return nil
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return &FileError{Path: file, Message: "file does not exist", Err: err}
		}
		if !info.Mode().IsRegular() {
			return &FileError{Path: file, Message: "not a regular file"}
		}
	}

	page, err := d.Page()
	if err != nil {
		return err
	}

	input := page.Locator(selector)
	if err := input.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(5000),
	}); err != nil {
		return &FileError{Message: "upload control not found: " + selector, Err: err}
	}

	d.log.Debugf("staging %d files on %s", len(files), selector)
	if err := input.SetInputFiles(files); err != nil {
		return &FileError{Message: "failed to set input files", Err: err}
	}

	// Give the page a moment to pick the files up.
	page.WaitForTimeout(1000)
	d.log.Infof("uploaded %d files", len(files))
	return nil
}

// UploadFile uploads one file, reporting success as a bool. Soft variant
// used when a failed upload should not abort the send cycle.
func (d *Driver) UploadFile(selector, file string) bool {
	if err := d.UploadFiles(selector, []string{file}); err != nil {
		d.log.Errorf("upload failed for %s: %v", file, err)
		return false
	}
	return true
}

// LastMatchText returns the text content of the last visible element
// matching selector, empty when nothing matches.
func (d *Driver) LastMatchText(selector string) (string, error) {
	page, err := d.Page()
	if err != nil {
		return "", err
	}

	elements := page.Locator(selector)
	count, err := elements.Count()
	if err != nil || count == 0 {
		return "", err
	}

	last := elements.Nth(count - 1)
	visible, err := last.IsVisible()
	if err != nil || !visible {
		return "", nil
	}
	text, err := last.TextContent()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// VisibleTexts collects inner text from visible elements matching
// selector, up to limit entries. Single-character entries are dropped as
// icon glyphs.
func (d *Driver) VisibleTexts(selector string, limit int) ([]string, error) {
	page, err := d.Page()
	if err != nil {
		return nil, err
	}

	elements := page.Locator(selector)
	count, err := elements.Count()
	if err != nil {
		return nil, err
	}

	var texts []string
	for i := 0; i < count; i++ {
		if limit > 0 && len(texts) >= limit {
			break
		}
		el := elements.Nth(i)
		visible, err := el.IsVisible()
		if err != nil || !visible {
			continue
		}
		text, err := el.InnerText()
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); len([]rune(text)) > 1 {
			texts = append(texts, text)
		}
	}
	return texts, nil
}
