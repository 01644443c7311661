// Package deepseek drives chat.deepseek.com. The product requires an
// account, so the first run blocks on a manual sign-in; subsequent runs
// reuse the persisted session state.
package deepseek

import (
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/mashangworks/webot/pkg/browser"
	"github.com/mashangworks/webot/pkg/config"
	"github.com/mashangworks/webot/pkg/logging"
	"github.com/mashangworks/webot/pkg/webot"
)

// PluginName selects this variant in a bot config.
const PluginName = "deepseek"

// fallbackResponseSelector matches assistant messages when the config
// supplies no response_content selector.
const fallbackResponseSelector = "[class*='message'], [data-testid*='message'], .prose"

// closingPhrases are the generated-content disclaimers the product
// appends to a finished reply.
var closingPhrases = []string{
	"本回答由 AI 生成，内容仅供参考，请仔细甄别。",
	"本回答由 AI 生成，仅供参考。",
	"希望能帮到你！",
}

func init() {
	webot.RegisterSite(PluginName, New)
}

// Site implements the product-specific hooks.
type Site struct {
	drv *browser.Driver
	cfg *config.BotConfig
	log *logging.Logger
}

// New builds the deepseek site behavior.
func New(drv *browser.Driver, cfg *config.BotConfig, log *logging.Logger) webot.Site {
	if log == nil {
		log = logging.Discard(PluginName)
	}
	return &Site{drv: drv, cfg: cfg, log: log}
}

func (s *Site) RequiresLogin() bool { return true }

// LoggedIn treats a reachable message input on the chat page as proof of
// an authenticated session; the product redirects logged-out visitors to
// the sign-in page.
func (s *Site) LoggedIn() (bool, error) {
	url := s.drv.URL()
	if s.cfg.LoginURL != "" && strings.HasPrefix(url, s.cfg.LoginURL) && s.cfg.LoginURL != s.cfg.ChatURL {
		return false, nil
	}

	if input := s.cfg.Selector(config.RoleMessageInput); input != "" {
		if err := s.drv.WaitForSelector(input, 3000); err == nil {
			return true, nil
		}
		return false, nil
	}
	return strings.HasPrefix(url, s.cfg.ChatURL), nil
}

func (s *Site) PrepareChat() error {
	if strings.HasPrefix(s.drv.URL(), s.cfg.ChatURL) {
		return nil
	}
	if err := s.drv.Goto(s.cfg.ChatURL); err != nil {
		return err
	}
	if err := s.drv.WaitForNetworkIdle(); err != nil {
		s.log.Debugf("network did not settle: %v", err)
	}
	s.drv.Sleep(500)
	return nil
}

// ResponseText returns the last visible matching message.
func (s *Site) ResponseText() (string, error) {
	selector := s.cfg.Selector(config.RoleResponseContent)
	if selector == "" {
		selector = fallbackResponseSelector
	}
	return s.drv.LastMatchText(selector)
}

// TriggerCopy clicks the copy icon under the newest reply. The button
// group renders below the message as a ds-flex row with icon buttons,
// copy first.
func (s *Site) TriggerCopy() bool {
	page, err := s.drv.Page()
	if err != nil {
		return false
	}

	reply := page.Locator("div:has(> .ds-flex)").Last()
	buttons := reply.Locator(".ds-flex").Last()
	copyButton := buttons.Locator(".ds-icon-button__hover-bg").First()

	if err := copyButton.ScrollIntoViewIfNeeded(); err != nil {
		s.log.Debugf("copy button not reachable: %v", err)
		return false
	}
	page.WaitForTimeout(300)

	if err := copyButton.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		s.log.Debugf("copy button click failed: %v", err)
		return false
	}
	return true
}

func (s *Site) WatcherOptions() webot.WatcherOptions {
	return webot.WatcherOptions{
		ClosingPhrases: closingPhrases,
	}
}
