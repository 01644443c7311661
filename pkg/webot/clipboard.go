package webot

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/mashangworks/webot/pkg/browser"
	"github.com/mashangworks/webot/pkg/logging"
)

// clipboardSettle is how long a clicked copy button is given to populate
// the clipboard before the first read.
const clipboardSettle = 500 * time.Millisecond

// Clipboard reads text copied into the browser by a page-side copy
// button. The in-page async clipboard API is tried first since it sees
// the same clipboard the page wrote to; the OS clipboard is the
// fallback for contexts where the page denies the read.
type Clipboard struct {
	drv   *browser.Driver
	log   *logging.Logger
	sleep func(time.Duration)

	// readOS is swappable in tests.
	readOS func() (string, error)
}

// NewClipboard creates a clipboard reader bound to a driver.
func NewClipboard(drv *browser.Driver, log *logging.Logger) *Clipboard {
	if log == nil {
		log = logging.Discard("clipboard")
	}
	return &Clipboard{
		drv:    drv,
		log:    log,
		sleep:  time.Sleep,
		readOS: clipboard.ReadAll,
	}
}

// Read returns the current clipboard text, giving the copy operation a
// short settle period first. An empty string with a nil error means the
// clipboard was readable but held nothing useful.
func (c *Clipboard) Read() (string, error) {
	c.sleep(clipboardSettle)

	if text := c.readPage(); text != "" {
		return text, nil
	}

	text, err := c.readOS()
	if err != nil {
		c.log.Warnf("os clipboard read failed: %v", err)
		return "", nil
	}
	return strings.TrimSpace(text), nil
}

// readPage reads through the page's async clipboard API. Requires the
// clipboard-read permission the browser context is created with.
func (c *Clipboard) readPage() string {
	if c.drv == nil || !c.drv.Connected() {
		return ""
	}
	result, err := c.drv.Evaluate(`navigator.clipboard.readText()`)
	if err != nil {
		c.log.Debugf("page clipboard read failed: %v", err)
		return ""
	}
	text, ok := result.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
