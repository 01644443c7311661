package config

import (
	"path/filepath"
)

// Selector roles understood by the core. A bot config maps these logical
// roles to concrete page locators; the core never hardcodes site selectors.
const (
	RoleMessageInput    = "message_input"
	RoleSendButton      = "send_button"
	RoleFileUpload      = "file_upload"
	RoleImageUpload     = "image_upload"
	RoleCopyButton      = "copy_button"
	RoleResponseContent = "response_content"
)

// Feature flag keys with their defaults applied by ApplyDefaults.
const (
	FeatureSaveLoginState    = "save_login_state"
	FeatureSaveConversations = "save_conversations"
	FeatureUseMarkdownCopy   = "use_markdown_copy"
	FeatureSaveHistory       = "save_history"
)

// DefaultUserAgent is used when a config omits the user agent or supplies
// one that normalizes to the empty string.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// Geolocation is the coordinate pair handed to the browser context.
type Geolocation struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// BrowserConfig holds the browser fingerprint parameters for one bot.
type BrowserConfig struct {
	UserAgent   string       `yaml:"user_agent" json:"user_agent"`
	Locale      string       `yaml:"locale" json:"locale"`
	Timezone    string       `yaml:"timezone" json:"timezone"`
	Geolocation *Geolocation `yaml:"geolocation,omitempty" json:"geolocation,omitempty"`
	Permissions []string     `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	InitScript  string       `yaml:"init_script,omitempty" json:"init_script,omitempty"`
	Headless    bool         `yaml:"headless" json:"headless"`

	// StateDir is where persisted login-state snapshots live.
	// Empty means "browser_states" relative to the working directory.
	StateDir string `yaml:"state_dir,omitempty" json:"state_dir,omitempty"`
}

// BotConfig is the resolved configuration for one bot identity. It is
// loaded by Service and treated as immutable by the core for the lifetime
// of a session.
type BotConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	LoginURL    string            `yaml:"login_url" json:"login_url"`
	ChatURL     string            `yaml:"chat_url" json:"chat_url"`
	Selectors   map[string]string `yaml:"selectors" json:"selectors"`
	Features    map[string]bool   `yaml:"features,omitempty" json:"features,omitempty"`
	Browser     BrowserConfig     `yaml:"browser" json:"browser"`

	// Plugin names the registered bot constructor this config binds to.
	Plugin string `yaml:"plugin" json:"plugin"`

	// Specific carries site-specific knobs the core does not interpret.
	Specific map[string]interface{} `yaml:"specific,omitempty" json:"specific,omitempty"`

	OutputDir string `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`
	Version   string `yaml:"version,omitempty" json:"version,omitempty"`
}

// ApplyDefaults fills in feature defaults and browser fallbacks. Called by
// Service.Load; exposed for callers that build configs programmatically.
func (c *BotConfig) ApplyDefaults() {
	if c.Features == nil {
		c.Features = make(map[string]bool)
	}
	for _, key := range []string{
		FeatureSaveLoginState,
		FeatureSaveConversations,
		FeatureUseMarkdownCopy,
		FeatureSaveHistory,
	} {
		if _, ok := c.Features[key]; !ok {
			c.Features[key] = true
		}
	}

	if c.Browser.Locale == "" {
		c.Browser.Locale = "en-US"
	}
	if c.Browser.Timezone == "" {
		c.Browser.Timezone = "UTC"
	}
}

// Selector returns the locator for a logical role, or "" when unset.
func (c *BotConfig) Selector(role string) string {
	if c.Selectors == nil {
		return ""
	}
	return c.Selectors[role]
}

func (c *BotConfig) feature(key string) bool {
	if c.Features == nil {
		return true
	}
	v, ok := c.Features[key]
	if !ok {
		return true
	}
	return v
}

// SaveLoginState reports whether login state should persist across sessions.
func (c *BotConfig) SaveLoginState() bool { return c.feature(FeatureSaveLoginState) }

// SaveConversations reports whether completed exchanges are written to disk.
func (c *BotConfig) SaveConversations() bool { return c.feature(FeatureSaveConversations) }

// UseMarkdownCopy reports whether the copy-control extraction channel runs.
func (c *BotConfig) UseMarkdownCopy() bool { return c.feature(FeatureUseMarkdownCopy) }

// SaveHistory reports whether conversation history scanning is enabled.
func (c *BotConfig) SaveHistory() bool { return c.feature(FeatureSaveHistory) }

// OutputDirPath returns the directory for result artifacts.
func (c *BotConfig) OutputDirPath() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return "output"
}

// StateDirPath returns the directory for persisted browser state files.
func (c *BotConfig) StateDirPath() string {
	if c.Browser.StateDir != "" {
		return c.Browser.StateDir
	}
	return "browser_states"
}

// StateFilePath returns the persisted-state file for the given bot name.
func (c *BotConfig) StateFilePath(botName string) string {
	return filepath.Join(c.StateDirPath(), botName+"_state.json")
}
