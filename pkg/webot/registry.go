package webot

import (
	"fmt"
	"sort"

	"github.com/mashangworks/webot/pkg/browser"
	"github.com/mashangworks/webot/pkg/config"
	"github.com/mashangworks/webot/pkg/logging"
)

// SiteConstructor builds a variant's site behavior around a live driver.
type SiteConstructor func(drv *browser.Driver, cfg *config.BotConfig, log *logging.Logger) Site

// Registry maps plugin names to site constructors and assembles bots from
// their configs. Variants register themselves from init.
type Registry struct {
	svc   *config.Service
	log   *logging.Logger
	sites map[string]SiteConstructor
}

// NewRegistry creates a registry backed by a config service.
func NewRegistry(svc *config.Service, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.Discard("registry")
	}
	return &Registry{
		svc:   svc,
		log:   log,
		sites: make(map[string]SiteConstructor),
	}
}

// Register binds a plugin name to a site constructor. Re-registering a
// name replaces the previous constructor.
func (r *Registry) Register(plugin string, ctor SiteConstructor) {
	r.sites[plugin] = ctor
}

// Plugins returns the registered plugin names, sorted.
func (r *Registry) Plugins() []string {
	names := make([]string, 0, len(r.sites))
	for name := range r.sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create loads the named bot's config and assembles a ready-to-start bot.
// The config's plugin field selects the variant; an empty plugin falls
// back to the bot name itself.
func (r *Registry) Create(botName string) (*Bot, error) {
	cfg, err := r.svc.Load(botName)
	if err != nil {
		return nil, err
	}

	plugin := cfg.Plugin
	if plugin == "" {
		plugin = cfg.Name
	}
	ctor, ok := r.sites[plugin]
	if !ok {
		return nil, fmt.Errorf("no site plugin registered for %q (have %v)", plugin, r.Plugins())
	}

	drv := browser.NewDriver(cfg, r.log)
	site := ctor(drv, cfg, r.log)
	return NewBot(cfg, drv, site, r.log), nil
}

// Configs lists every bot name with a config on disk, sorted.
func (r *Registry) Configs() []string {
	all := r.svc.ListAll()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry collects variants registered at package init time via
// RegisterSite, so importing a variant package is enough to make its
// plugin available.
var defaultSites = make(map[string]SiteConstructor)

// RegisterSite adds a constructor to the process-wide plugin set.
func RegisterSite(plugin string, ctor SiteConstructor) {
	defaultSites[plugin] = ctor
}

// NewDefaultRegistry creates a registry preloaded with every plugin
// registered through RegisterSite.
func NewDefaultRegistry(svc *config.Service, log *logging.Logger) *Registry {
	r := NewRegistry(svc, log)
	for name, ctor := range defaultSites {
		r.Register(name, ctor)
	}
	return r
}
