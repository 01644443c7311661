package webot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mashangworks/webot/pkg/browser"
	"github.com/mashangworks/webot/pkg/config"
	"github.com/mashangworks/webot/pkg/logging"
)

// typingDelayMs is the per-character delay when typing the outbound
// message. Instant fills trip bot detection on some sites.
const typingDelayMs = 30

// loginPollInterval is how often login status is re-checked while waiting
// for a manual sign-in.
const loginPollInterval = 2 * time.Second

// DefaultLoginWait bounds the manual login wait.
const DefaultLoginWait = 3 * time.Minute

// Site is the per-product behavior a bot variant supplies. The shared
// send/receive cycle lives in Bot; a Site only answers the questions that
// differ between products.
type Site interface {
	// RequiresLogin reports whether the product refuses chat without an
	// authenticated session.
	RequiresLogin() bool

	// LoggedIn probes the current page for signs of an authenticated
	// session. Only consulted when RequiresLogin is true.
	LoggedIn() (bool, error)

	// PrepareChat brings the page to a state where a message can be
	// typed and sent.
	PrepareChat() error

	// ResponseText returns the newest assistant reply text currently on
	// the page, empty when none is rendered yet.
	ResponseText() (string, error)

	// TriggerCopy clicks the copy control of the newest reply and
	// reports whether a click landed.
	TriggerCopy() bool

	// WatcherOptions tunes completion detection for this product.
	WatcherOptions() WatcherOptions
}

// SendOptions carries the optional parts of one send cycle.
type SendOptions struct {
	// Files are individual attachment paths.
	Files []string

	// Dir attaches a whole directory: its manifest document plus every
	// non-excluded file under it.
	Dir string

	// Timeout overrides the variant's completion budget when positive.
	Timeout time.Duration
}

// Bot drives one browser-backed chat product through send/receive cycles.
// A single flow owns all mutable state; Bot is not safe for concurrent
// use.
type Bot struct {
	cfg  *config.BotConfig
	drv  *browser.Driver
	site Site
	log  *logging.Logger

	clip     *Clipboard
	uploader *Uploader

	started bool
	ready   bool

	// lastResponse is the previous cycle's final text, used to filter
	// stale page content out of the next cycle's polling. Written only
	// when a cycle ends with content.
	lastResponse string

	// LoginPrompt, when set, is called once before the manual login
	// wait begins. The CLI uses it to tell the operator what to do.
	LoginPrompt func(loginURL string)

	// LoginWait bounds the manual login poll. Zero means
	// DefaultLoginWait.
	LoginWait time.Duration

	sleep func(time.Duration)
	now   func() time.Time
}

// NewBot assembles a bot from its config, driver, and site behavior.
func NewBot(cfg *config.BotConfig, drv *browser.Driver, site Site, log *logging.Logger) *Bot {
	if log == nil {
		log = logging.Discard("bot")
	}
	return &Bot{
		cfg:      cfg,
		drv:      drv,
		site:     site,
		log:      log,
		clip:     NewClipboard(drv, log),
		uploader: NewUploader(drv, cfg.OutputDirPath(), ManifestOptions{}, log),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Start launches the browser session, restoring persisted login state when
// the feature is enabled.
func (b *Bot) Start() error {
	if b.started {
		return nil
	}
	if err := b.drv.Start(b.cfg.Name, b.cfg.SaveLoginState()); err != nil {
		return err
	}
	b.started = true
	return nil
}

// Close tears the session down, persisting login state when enabled.
// Always safe to call.
func (b *Bot) Close() {
	if !b.started {
		return
	}
	b.drv.Close(b.cfg.Name, b.cfg.SaveLoginState())
	b.started = false
	b.ready = false
}

// EnsureReady makes the bot sendable: session started, login satisfied.
// For products that need an account this may block on a manual sign-in,
// polling until the page looks authenticated or LoginWait expires.
func (b *Bot) EnsureReady() error {
	if b.ready {
		return nil
	}
	if err := b.Start(); err != nil {
		return err
	}

	if !b.site.RequiresLogin() {
		b.ready = true
		return nil
	}

	if err := b.site.PrepareChat(); err != nil {
		return err
	}
	loggedIn, err := b.site.LoggedIn()
	if err != nil {
		return err
	}
	if loggedIn {
		b.log.Infof("existing session is authenticated")
		b.ready = true
		return nil
	}

	if err := b.waitForLogin(); err != nil {
		return err
	}
	b.ready = true
	return nil
}

func (b *Bot) waitForLogin() error {
	if b.cfg.LoginURL != "" {
		if err := b.drv.Goto(b.cfg.LoginURL); err != nil {
			return err
		}
	}
	if b.LoginPrompt != nil {
		b.LoginPrompt(b.cfg.LoginURL)
	}

	wait := b.LoginWait
	if wait <= 0 {
		wait = DefaultLoginWait
	}
	b.log.Infof("waiting up to %v for manual login", wait)

	deadline := b.now().Add(wait)
	for b.now().Before(deadline) {
		loggedIn, err := b.site.LoggedIn()
		if err != nil {
			b.log.Debugf("login probe failed: %v", err)
		} else if loggedIn {
			b.log.Infof("login detected")
			return nil
		}
		b.sleep(loginPollInterval)
	}
	return fmt.Errorf("login was not completed within %v", wait)
}

// Send runs one full cycle: validate attachments, prepare the chat page,
// upload, submit the message, and wait for the reply. The returned string
// is the reply text, empty on soft timeout. Attachment validation happens
// before any page interaction so a bad path never costs a navigation.
func (b *Bot) Send(message string, opts SendOptions) (string, error) {
	staged, err := b.uploader.Stage(opts.Files, opts.Dir)
	if err != nil {
		return "", err
	}

	if err := b.EnsureReady(); err != nil {
		return "", err
	}
	if err := b.site.PrepareChat(); err != nil {
		return "", err
	}

	if input := b.cfg.Selector(config.RoleMessageInput); input != "" {
		// Leftover draft text would prepend itself to the message.
		if err := b.drv.Fill(input, ""); err != nil {
			b.log.Debugf("could not clear input: %v", err)
		}
	}

	if !staged.Empty() {
		if err := b.uploader.UploadAll(staged,
			b.cfg.Selector(config.RoleFileUpload),
			b.cfg.Selector(config.RoleImageUpload)); err != nil {
			return "", err
		}
	}

	if err := b.submit(message); err != nil {
		return "", err
	}

	b.log.Infof("waiting for reply")
	text, state := b.waitForReply(opts.Timeout)
	if text != "" {
		b.lastResponse = text
	}
	if state == TimedOut {
		b.log.Warnf("reply wait timed out, returning %d chars", len([]rune(text)))
	}

	result := text
	if state == Completed && b.cfg.UseMarkdownCopy() {
		if copied := b.copyReply(); copied != "" {
			result = copied
		}
	}

	if result != "" && b.cfg.SaveConversations() {
		if path, err := b.saveResult(result); err != nil {
			b.log.Warnf("could not save reply: %v", err)
		} else {
			b.log.Infof("saved reply to %s", path)
		}
	}
	return result, nil
}

func (b *Bot) submit(message string) error {
	input := b.cfg.Selector(config.RoleMessageInput)
	if input == "" {
		return fmt.Errorf("no message input configured for %s", b.cfg.Name)
	}
	if err := b.drv.Type(input, message, typingDelayMs); err != nil {
		return err
	}

	if send := b.cfg.Selector(config.RoleSendButton); send != "" {
		if err := b.drv.Click(send); err == nil {
			return nil
		}
		b.log.Debugf("send button click failed, falling back to Enter")
	}
	return b.drv.Press("Enter")
}

// waitForReply runs the watcher over the site's extraction path. Markup
// in the extracted text is flattened before length tracking so render
// churn in attributes does not read as growth.
func (b *Bot) waitForReply(timeout time.Duration) (string, WaitState) {
	opts := b.site.WatcherOptions()
	if timeout > 0 {
		opts.MaxWait = timeout
	}
	watcher := NewWatcher(opts, b.log)

	poll := func() (string, error) {
		text, err := b.site.ResponseText()
		if err != nil {
			return "", err
		}
		if looksLikeHTML(text) {
			if flat, err := FlattenHTML(text); err == nil {
				return flat, nil
			}
		}
		return text, nil
	}
	return watcher.Wait(poll, b.lastResponse)
}

// copyReply runs the higher-fidelity extraction channel: click the page's
// copy control, read the clipboard. Empty when the site has no copy
// control or the clipboard could not be read.
func (b *Bot) copyReply() string {
	if !b.site.TriggerCopy() {
		b.log.Debugf("no copy control, keeping scraped text")
		return ""
	}
	text, err := b.clip.Read()
	if err != nil || text == "" {
		return ""
	}
	b.log.Infof("clipboard copy succeeded (%d chars)", len([]rune(text)))
	return text
}

// saveResult writes one reply as a timestamped markdown artifact.
func (b *Bot) saveResult(text string) (string, error) {
	dir := b.cfg.OutputDirPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	now := b.now()
	name := fmt.Sprintf("%s_response_%s.md", b.cfg.Name, now.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	body := fmt.Sprintf("# %s reply\n\n**Time**: %s\n\n**Length**: %d chars\n\n---\n\n%s",
		b.cfg.Name, now.Format("2006-01-02 15:04:05"), len([]rune(text)), text)

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// History returns the visible conversation titles from the sidebar.
// Best effort: sites without a matching sidebar yield an empty list.
func (b *Bot) History(limit int) ([]string, error) {
	if err := b.EnsureReady(); err != nil {
		return nil, err
	}
	if err := b.site.PrepareChat(); err != nil {
		return nil, err
	}
	return b.drv.VisibleTexts(`a[href*="/chat/"]`, limit)
}

// LastResponse returns the final text of the most recent completed cycle.
func (b *Bot) LastResponse() string {
	return b.lastResponse
}

// Name returns the configured bot name.
func (b *Bot) Name() string {
	return b.cfg.Name
}

// Driver exposes the underlying session for variant constructors.
func (b *Bot) Driver() *browser.Driver {
	return b.drv
}

// Config exposes the bot's config so callers can apply flag overrides
// before Start.
func (b *Bot) Config() *config.BotConfig {
	return b.cfg
}
