// Package qianwen drives tongyi.aliyun.com (Qwen web chat). The product
// works in guest mode; while a reply streams the page shows a stop
// button, which is the authoritative still-generating signal. The copy
// path goes through a per-message dropdown menu that offers a
// copy-as-markdown item.
package qianwen

import (
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/mashangworks/webot/pkg/browser"
	"github.com/mashangworks/webot/pkg/config"
	"github.com/mashangworks/webot/pkg/logging"
	"github.com/mashangworks/webot/pkg/webot"
)

// PluginName selects this variant in a bot config.
const PluginName = "qianwen"

const stopButtonSelector = `div[class*="stop"]`

const dropdownSelector = `button:has(span[data-icon-type="qwpcicon-down"])`

// responseProbes are tried in order until one matches visible reply text.
// The product's class names churn between releases, so the probes match
// on stable substrings.
var responseProbes = []string{
	`[class*="answer"]`,
	`[class*="response"]`,
	`[class*="ai-message"]`,
	`[class*="bot-message"]`,
	`[class*="markdown"]`,
	`[class*="prose"]`,
}

// copyMenuLabels are tried in order once the dropdown is open.
var copyMenuLabels = []string{"复制为Markdown", "复制"}

// dropdownWait bounds the scroll-and-look loop for the per-message
// dropdown after a reply completes.
const dropdownWait = 2 * time.Minute

func init() {
	webot.RegisterSite(PluginName, New)
}

// Site implements the product-specific hooks.
type Site struct {
	drv *browser.Driver
	cfg *config.BotConfig
	log *logging.Logger
}

// New builds the qianwen site behavior.
func New(drv *browser.Driver, cfg *config.BotConfig, log *logging.Logger) webot.Site {
	if log == nil {
		log = logging.Discard(PluginName)
	}
	return &Site{drv: drv, cfg: cfg, log: log}
}

// RequiresLogin is false: guest mode is enough to chat.
func (s *Site) RequiresLogin() bool { return false }

func (s *Site) LoggedIn() (bool, error) { return true, nil }

func (s *Site) PrepareChat() error {
	if err := s.drv.Goto(s.cfg.ChatURL); err != nil {
		return err
	}
	if input := s.cfg.Selector(config.RoleMessageInput); input != "" {
		if err := s.drv.WaitForSelector(input, 5000); err != nil {
			s.log.Debugf("message input not found yet: %v", err)
		}
	}
	return nil
}

// ResponseText probes the known reply containers and returns the newest
// visible match.
func (s *Site) ResponseText() (string, error) {
	selector := s.cfg.Selector(config.RoleResponseContent)
	if selector != "" {
		return s.drv.LastMatchText(selector)
	}
	for _, probe := range responseProbes {
		text, err := s.drv.LastMatchText(probe)
		if err != nil {
			return "", err
		}
		if text != "" {
			return text, nil
		}
	}
	return "", nil
}

// generating reports whether a visible stop button shows the reply is
// still streaming.
func (s *Site) generating() bool {
	page, err := s.drv.Page()
	if err != nil {
		return false
	}
	buttons := page.Locator(stopButtonSelector)
	count, err := buttons.Count()
	if err != nil {
		return false
	}
	for i := 0; i < count; i++ {
		if visible, err := buttons.Nth(i).IsVisible(); err == nil && visible {
			return true
		}
	}
	return false
}

// TriggerCopy scrolls until the newest reply's dropdown renders, opens
// it, and clicks the copy-as-markdown item.
func (s *Site) TriggerCopy() bool {
	page, err := s.drv.Page()
	if err != nil {
		return false
	}

	dropdown := page.Locator(dropdownSelector).Last()
	if !s.waitForDropdown(page, dropdown) {
		s.log.Warnf("reply dropdown never appeared")
		return false
	}

	if err := dropdown.ScrollIntoViewIfNeeded(); err != nil {
		s.log.Debugf("dropdown not reachable: %v", err)
		return false
	}
	if err := dropdown.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		s.log.Debugf("dropdown click failed: %v", err)
		return false
	}

	return s.clickCopyItem(page)
}

// waitForDropdown keeps the page scrolled to the bottom until the
// dropdown is visible with a real bounding box.
func (s *Site) waitForDropdown(page playwright.Page, dropdown playwright.Locator) bool {
	deadline := time.Now().Add(dropdownWait)
	for time.Now().Before(deadline) {
		if _, err := page.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			s.log.Debugf("scroll failed: %v", err)
		}
		page.WaitForTimeout(500)

		visible, err := dropdown.IsVisible()
		if err == nil && visible {
			if box, err := dropdown.BoundingBox(); err == nil && box != nil && box.Width > 0 && box.Height > 0 {
				return true
			}
		}
		page.WaitForTimeout(1000)
	}
	return false
}

func (s *Site) clickCopyItem(page playwright.Page) bool {
	for i, label := range copyMenuLabels {
		item := page.GetByRole(*playwright.AriaRoleMenuitem, playwright.PageGetByRoleOptions{
			Name:  label,
			Exact: playwright.Bool(i > 0),
		}).Last()

		if err := item.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(3000),
		}); err != nil {
			continue
		}
		if err := item.Click(); err != nil {
			s.log.Debugf("copy menu item %q click failed: %v", label, err)
			continue
		}
		page.WaitForTimeout(500)
		return true
	}
	return false
}

func (s *Site) WatcherOptions() webot.WatcherOptions {
	return webot.WatcherOptions{
		StartTimeout: 30 * time.Second,
		MaxWait:      30 * time.Minute,
		Busy:         s.generating,
	}
}
