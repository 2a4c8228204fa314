package manager

import "context"

// Keys under which the built-in admin hooks publish their selections on the
// PhaseContext. Transports read these when rendering.
const (
	ValueTheme  = "theme"
	ValueLayout = "layout"
	ValueMenu   = "menu"
	ValueTitle  = "title"
)

// MenuEntry is a navigation item contributed by a hook. Lower weights sort
// first.
type MenuEntry struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Weight int    `json:"weight"`
}

// RegisterAdminHooks installs the default overrides for the "admin" prefix:
// the beforeFilter hook selects the admin theme/layout and seeds the base
// navigation; the beforeRender hook defaults the view title. Hosts that want
// different admin behavior register their own hooks instead.
func RegisterAdminHooks(registry *HookRegistry, cfg Config) {
	registry.Register("admin", PhaseBeforeFilter, adminBeforeFilter(cfg))
	registry.Register("admin", PhaseBeforeRender, adminBeforeRender())
}

func adminBeforeFilter(cfg Config) HookFunc {
	return func(ctx context.Context, pc *PhaseContext) error {
		menu := []MenuEntry{
			{Title: "Dashboard", URL: "/admin/manager/pages/dashboard", Weight: -1},
			{Title: "Users", URL: "/admin/manager/users", Weight: 0},
			{Title: "Roles", URL: "/admin/manager/roles", Weight: 1},
			{Title: "Plugins", URL: "/admin/manager/pages/plugins", Weight: 1},
		}

		if existing, ok := pc.Get(ValueMenu); ok {
			if entries, ok := existing.([]MenuEntry); ok {
				menu = append(entries, menu...)
			}
		}

		pc.Set(ValueMenu, menu)
		pc.Set(ValueTheme, cfg.GetAdminTheme())
		pc.Set(ValueLayout, cfg.GetAdminLayout())
		return nil
	}
}

func adminBeforeRender() HookFunc {
	return func(ctx context.Context, pc *PhaseContext) error {
		if _, ok := pc.Get(ValueTitle); !ok {
			pc.Set(ValueTitle, "Manager")
		}
		return nil
	}
}
