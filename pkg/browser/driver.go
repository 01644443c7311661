package browser

import (
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/mashangworks/webot/pkg/config"
	"github.com/mashangworks/webot/pkg/logging"
)

// DefaultUserAgent is the fallback used when the config supplies none.
const DefaultUserAgent = config.DefaultUserAgent

// launchArgs tones down the most obvious automation tells.
var launchArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--start-maximized",
	"--disable-popup-blocking",
	"--disable-notifications",
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// Driver owns the browser resources for exactly one bot identity: one
// Playwright engine, one browser process, one context, one page. A page
// reference is valid only between a successful Start and the next Close.
type Driver struct {
	cfg *config.BotConfig
	log *logging.Logger

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// NewDriver creates a driver for the given bot config. The logger must not
// be nil; pass logging.Discard for silent operation.
func NewDriver(cfg *config.BotConfig, log *logging.Logger) *Driver {
	return &Driver{cfg: cfg, log: log}
}

// Start launches the engine and browser, resolves a context from persisted
// state when restoreState is set, and opens the page. On any failure the
// partially allocated resources are torn down before the error is returned
// as a *SessionError.
func (d *Driver) Start(botName string, restoreState bool) error {
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return sessionErrorf(err, "failed to install browser engine")
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return sessionErrorf(err, "failed to start browser engine")
	}
	d.pw = pw

	d.log.Debugf("launching browser: headless=%v args=%v", d.cfg.Browser.Headless, launchArgs)
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.cfg.Browser.Headless),
		Args:     launchArgs,
	})
	if err != nil {
		d.cleanupOnError()
		return sessionErrorf(err, "failed to launch browser")
	}
	d.browser = browser

	context, err := d.loadOrCreateContext(botName, restoreState)
	if err != nil {
		d.cleanupOnError()
		if _, ok := err.(*SessionError); ok {
			return err
		}
		return sessionErrorf(err, "failed to resolve browser context")
	}
	d.context = context

	page, err := context.NewPage()
	if err != nil {
		d.cleanupOnError()
		return sessionErrorf(err, "failed to create page")
	}
	d.page = page

	if script := d.cfg.Browser.InitScript; script != "" {
		if err := page.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
			d.cleanupOnError()
			return sessionErrorf(err, "failed to inject init script")
		}
		d.log.Debugf("init script injected")
	}

	d.log.Infof("browser started for %s", botName)
	return nil
}

// loadOrCreateContext resolves the browsing context per the restore policy:
// no restore or no state file means a fresh context; a dead browser process
// is fatal; an unreadable or corrupt state file degrades to a fresh context.
func (d *Driver) loadOrCreateContext(botName string, restoreState bool) (playwright.BrowserContext, error) {
	if !restoreState {
		d.log.Infof("login-state restore disabled, creating fresh context")
		return d.newContext(nil)
	}

	statePath := d.cfg.StateFilePath(botName)
	if _, err := os.Stat(statePath); err != nil {
		d.log.Infof("no state file at %s, creating fresh context", statePath)
		return d.newContext(nil)
	}

	// Check the browser before touching the file: a dead browser is an
	// infrastructure problem a fresh context cannot fix.
	if d.browser == nil || !d.browser.IsConnected() {
		return nil, &SessionError{Message: "browser disconnected, cannot restore state"}
	}

	state, err := loadStorageState(statePath, d.log)
	if err != nil {
		return nil, err
	}
	return d.newContext(state)
}

// normalizeUserAgent collapses embedded whitespace and substitutes the
// default when the result is empty.
func normalizeUserAgent(ua string) string {
	ua = strings.TrimSpace(whitespacePattern.ReplaceAllString(ua, " "))
	if ua == "" {
		return DefaultUserAgent
	}
	return ua
}

func (d *Driver) newContext(state *playwright.OptionalStorageState) (playwright.BrowserContext, error) {
	if d.browser == nil || !d.browser.IsConnected() {
		return nil, &SessionError{Message: "browser disconnected, cannot create context"}
	}

	userAgent := normalizeUserAgent(d.cfg.Browser.UserAgent)
	if userAgent == DefaultUserAgent && d.cfg.Browser.UserAgent != DefaultUserAgent {
		d.log.Warnf("user agent missing or blank, using default")
	}

	locale := d.cfg.Browser.Locale
	if locale == "" {
		locale = "en-US"
	}
	timezone := d.cfg.Browser.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	permissions := []string{"clipboard-read", "clipboard-write"}
	if len(d.cfg.Browser.Permissions) > 0 {
		permissions = d.cfg.Browser.Permissions
	}

	opts := playwright.BrowserNewContextOptions{
		UserAgent:   playwright.String(userAgent),
		Locale:      playwright.String(locale),
		TimezoneId:  playwright.String(timezone),
		NoViewport:  playwright.Bool(true),
		Permissions: permissions,
	}

	if geo := d.cfg.Browser.Geolocation; geo != nil {
		opts.Geolocation = &playwright.Geolocation{
			Latitude:  geo.Latitude,
			Longitude: geo.Longitude,
		}
		d.log.Debugf("geolocation: %.4f,%.4f", geo.Latitude, geo.Longitude)
	}

	if state != nil {
		opts.StorageState = state
		d.log.Debugf("restoring login state (%d cookies)", len(state.Cookies))
	}

	context, err := d.browser.NewContext(opts)
	if err != nil {
		return nil, sessionErrorf(err, "failed to create browser context (restored=%v, locale=%s)",
			state != nil, locale)
	}
	return context, nil
}

// cleanupOnError releases whatever Start managed to allocate. Errors are
// ignored: this runs on a path that is already failing.
func (d *Driver) cleanupOnError() {
	if d.context != nil {
		_ = d.context.Close()
		d.context = nil
	}
	if d.browser != nil {
		_ = d.browser.Close()
		d.browser = nil
	}
	if d.pw != nil {
		_ = d.pw.Stop()
		d.pw = nil
	}
	d.page = nil
}

// SaveState persists the current context's cookies and storage to the
// bot's state file.
func (d *Driver) SaveState(botName string) error {
	if d.context == nil {
		d.log.Warnf("no browser context, cannot save state")
		return nil
	}

	state, err := d.context.StorageState()
	if err != nil {
		return sessionErrorf(err, "failed to snapshot storage state")
	}

	statePath := d.cfg.StateFilePath(botName)
	if err := writeStorageState(statePath, state); err != nil {
		return err
	}
	d.log.Infof("browser state saved to %s", statePath)
	return nil
}

// Close tears the session down in order: persist state (when requested),
// close the context, close the browser, stop the engine. Every step is
// isolated so a failure in one never skips the rest, and failures are
// logged rather than returned since teardown must not block exit.
func (d *Driver) Close(botName string, saveState bool) {
	if saveState && d.context != nil {
		if err := d.SaveState(botName); err != nil {
			d.log.Warnf("failed to save browser state: %v", err)
		}
	}

	if d.context != nil {
		if err := d.context.Close(); err != nil {
			d.log.Warnf("failed to close browser context: %v", err)
		}
		d.context = nil
	}

	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			d.log.Warnf("failed to close browser: %v", err)
		}
		d.browser = nil
	}

	if d.pw != nil {
		if err := d.pw.Stop(); err != nil {
			d.log.Warnf("failed to stop browser engine: %v", err)
		}
		d.pw = nil
	}

	d.page = nil
	d.log.Infof("browser closed for %s", botName)
}

// Page returns the active page.
func (d *Driver) Page() (playwright.Page, error) {
	if d.page == nil {
		return nil, &SessionError{Message: "browser not started"}
	}
	return d.page, nil
}

// Connected reports whether the browser process is alive.
func (d *Driver) Connected() bool {
	return d.browser != nil && d.browser.IsConnected()
}
