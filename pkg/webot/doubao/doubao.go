// Package doubao drives www.doubao.com. Guest mode works, though the
// first message may ask for a captcha in the browser. The page tags its
// message nodes with data-testid attributes, which makes extraction more
// reliable than class-name probing: replies are counted before a send
// and the first message past that count is the new one.
package doubao

import (
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/mashangworks/webot/pkg/browser"
	"github.com/mashangworks/webot/pkg/config"
	"github.com/mashangworks/webot/pkg/logging"
	"github.com/mashangworks/webot/pkg/webot"
)

// PluginName selects this variant in a bot config.
const PluginName = "doubao"

const (
	receiveMessageID = "receive_message"
	messageTextID    = "message_text_content"
	copyActionID     = "message_action_copy"
)

func init() {
	webot.RegisterSite(PluginName, New)
}

// Site implements the product-specific hooks.
type Site struct {
	drv *browser.Driver
	cfg *config.BotConfig
	log *logging.Logger

	// baseline is the visible reply count before the current send,
	// captured by PrepareChat so only a genuinely new message is
	// reported during the wait.
	baseline int
}

// New builds the doubao site behavior.
func New(drv *browser.Driver, cfg *config.BotConfig, log *logging.Logger) webot.Site {
	if log == nil {
		log = logging.Discard(PluginName)
	}
	return &Site{drv: drv, cfg: cfg, log: log}
}

// RequiresLogin is false: guest mode is enough to chat.
func (s *Site) RequiresLogin() bool { return false }

func (s *Site) LoggedIn() (bool, error) { return true, nil }

// PrepareChat navigates to the chat page if needed and records the reply
// baseline for the next send cycle.
func (s *Site) PrepareChat() error {
	if !strings.HasPrefix(s.drv.URL(), s.cfg.ChatURL) {
		if err := s.drv.Goto(s.cfg.ChatURL); err != nil {
			return err
		}
		if input := s.cfg.Selector(config.RoleMessageInput); input != "" {
			if err := s.drv.WaitForSelector(input, 5000); err != nil {
				s.log.Debugf("message input not found yet: %v", err)
			}
		}
		s.drv.Sleep(1000)
	}

	s.baseline = s.replyCount()
	s.log.Debugf("visible replies before send: %d", s.baseline)
	return nil
}

// replyCount counts visible replies that carry rendered text.
func (s *Site) replyCount() int {
	page, err := s.drv.Page()
	if err != nil {
		return 0
	}

	replies := page.GetByTestId(receiveMessageID).Filter(playwright.LocatorFilterOptions{
		Has: page.GetByTestId(messageTextID),
	})
	count, err := replies.Count()
	if err != nil {
		return 0
	}

	visible := 0
	for i := 0; i < count; i++ {
		if ok, err := replies.Nth(i).IsVisible(); err == nil && ok {
			visible++
		}
	}
	return visible
}

// ResponseText returns the text of the reply past the send baseline,
// empty while none has appeared. The page keeps earlier turns rendered,
// so counting is the only reliable way to tell old replies from the new
// one.
func (s *Site) ResponseText() (string, error) {
	page, err := s.drv.Page()
	if err != nil {
		return "", err
	}

	if s.replyCount() <= s.baseline {
		return "", nil
	}

	// Keep the stream in view so lazy rendering does not stall the text.
	if _, err := page.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		s.log.Debugf("scroll failed: %v", err)
	}

	newest := page.GetByTestId(receiveMessageID).Filter(playwright.LocatorFilterOptions{
		Has: page.GetByTestId(messageTextID),
	}).Last()

	text, err := newest.GetByTestId(messageTextID).First().TextContent()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// TriggerCopy scrolls to the newest reply and clicks its copy action.
func (s *Site) TriggerCopy() bool {
	page, err := s.drv.Page()
	if err != nil {
		return false
	}

	// A body click dismisses any open tooltip that would cover the
	// action row.
	if err := page.Click("body", playwright.PageClickOptions{
		Delay: playwright.Float(50),
	}); err != nil {
		s.log.Debugf("body click failed: %v", err)
	}
	page.WaitForTimeout(300)
	if _, err := page.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		s.log.Debugf("scroll failed: %v", err)
	}

	copyButton := page.GetByTestId(copyActionID).Last()
	if err := copyButton.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(20000),
	}); err != nil {
		s.log.Warnf("copy action never became visible: %v", err)
		return false
	}
	if err := copyButton.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		s.log.Debugf("copy action click failed: %v", err)
		return false
	}
	page.WaitForTimeout(500)
	return true
}

func (s *Site) WatcherOptions() webot.WatcherOptions {
	return webot.WatcherOptions{
		PollInterval:   600 * time.Millisecond,
		StreamInterval: 300 * time.Millisecond,
		StartTimeout:   50 * time.Second,
		MaxWait:        30 * time.Minute,
	}
}
