package config

import "fmt"

// defaultInitScript masks the most common automation fingerprints. Injected
// into every new page unless the config overrides it.
const defaultInitScript = `// Override the webdriver property
Object.defineProperty(navigator, 'webdriver', {
    get: () => false
});

// Fake a chrome runtime object
window.chrome = {
    runtime: {},
    loadTimes: function() {},
    csi: function() {},
    app: {}
};

// Populate plugins
Object.defineProperty(navigator, 'plugins', {
    get: () => [1, 2, 3, 4, 5]
});

// Populate languages
Object.defineProperty(navigator, 'languages', {
    get: () => ['zh-CN', 'zh', 'en']
});`

func sampleBrowser() BrowserConfig {
	return BrowserConfig{
		UserAgent:   DefaultUserAgent,
		Locale:      "zh-CN",
		Timezone:    "Asia/Shanghai",
		Geolocation: &Geolocation{Latitude: 39.9042, Longitude: 116.4074},
		Permissions: []string{"geolocation"},
		InitScript:  defaultInitScript,
		Headless:    false,
	}
}

// SampleConfig returns a starter configuration for a known bot type.
func SampleConfig(botType string) (*BotConfig, error) {
	var cfg *BotConfig

	switch botType {
	case "deepseek":
		cfg = &BotConfig{
			Name:        "DeepSeek",
			Description: "DeepSeek web chat bot with file upload support",
			LoginURL:    "https://chat.deepseek.com/auth/login",
			ChatURL:     "https://chat.deepseek.com/",
			Browser:     sampleBrowser(),
			Selectors: map[string]string{
				RoleMessageInput:    "textarea",
				RoleSendButton:      "button[type='submit']",
				RoleFileUpload:      "input[type='file']",
				RoleCopyButton:      "button.copy-btn",
				RoleResponseContent: ".message-content",
			},
			Plugin: "deepseek",
			Specific: map[string]interface{}{
				"auto_accept_cookies": true,
			},
			OutputDir: "output/deepseek",
			Version:   "1.0.0",
		}
	case "qianwen":
		cfg = &BotConfig{
			Name:        "通义千问",
			Description: "QianWen web chat bot with multiple login methods",
			LoginURL:    "https://tongyi.aliyun.com/qianwen",
			ChatURL:     "https://tongyi.aliyun.com/qianwen/chat",
			Browser:     sampleBrowser(),
			Selectors: map[string]string{
				RoleMessageInput:    "textarea[placeholder*='输入' i]",
				RoleSendButton:      "button:has-text('发送'), button[type='submit']",
				RoleFileUpload:      "input[type='file'][accept*='.txt'], input[type='file'][accept*='.pdf']",
				RoleImageUpload:     "input[type='file'][accept*='.jpg'], input[type='file'][accept*='.png']",
				RoleCopyButton:      "button.copy-btn, button[aria-label*='复制']",
				RoleResponseContent: ".response-content, .message-content",
			},
			Plugin: "qianwen",
			Specific: map[string]interface{}{
				"qrcode_refresh_interval": 30,
			},
			OutputDir: "output/qianwen",
			Version:   "1.0.0",
		}
	case "doubao":
		cfg = &BotConfig{
			Name:        "豆包",
			Description: "DouBao web chat bot with QR code and SMS login",
			LoginURL:    "https://www.doubao.com/chat",
			ChatURL:     "https://www.doubao.com/chat",
			Browser:     sampleBrowser(),
			Selectors: map[string]string{
				RoleMessageInput:    "div[contenteditable='true'], textarea[placeholder*='聊点什么' i]",
				RoleSendButton:      "button:has-text('发送'), button.send-btn, button[type='submit']",
				RoleFileUpload:      "input[type='file'], .upload-area",
				RoleCopyButton:      "button.copy-btn, button[aria-label*='复制'], button[title*='复制']",
				RoleResponseContent: ".message-text, .bubble-content, .message-content",
			},
			Plugin: "doubao",
			Specific: map[string]interface{}{
				"debug_screenshot": false,
			},
			OutputDir: "output/doubao",
			Version:   "1.0.0",
		}
	default:
		return nil, fmt.Errorf("unknown bot type: %s", botType)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// CreateSample writes a starter config file for the given bot type and
// returns its path.
func (s *Service) CreateSample(botType, format string) (string, error) {
	cfg, err := SampleConfig(botType)
	if err != nil {
		return "", err
	}
	return s.Save(botType, format, cfg)
}
