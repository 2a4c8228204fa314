package manager

// SimpleConfig is a value based Config implementation. Hosts with their own
// configuration layer implement the Config interface directly.
type SimpleConfig struct {
	SigningKey      string
	ContextKey      string
	TokenExpiration int
	Issuer          string
	Audience        []string
	LoginRoute      string
	DefaultRedirect string
	LogoutRedirect  string
	AdminTheme      string
	AdminLayout     string
	Views           Views
}

// DefaultConfig mirrors the defaults a host gets without any overrides.
func DefaultConfig(signingKey string) *SimpleConfig {
	return &SimpleConfig{
		SigningKey:      signingKey,
		ContextKey:      "manager_session",
		TokenExpiration: 48,
		Issuer:          "go-manager",
		LoginRoute:      "/login",
		DefaultRedirect: "/",
		LogoutRedirect:  "/login",
		AdminTheme:      "manager",
		AdminLayout:     "admin",
		Views: Views{
			Login:          "users/login",
			ForgotPassword: "users/forgot_password",
			ResetPassword:  "users/reset_password",
		},
	}
}

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetContextKey() string { return c.ContextKey }

func (c *SimpleConfig) GetTokenExpiration() int { return c.TokenExpiration }

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func (c *SimpleConfig) GetAudience() []string { return c.Audience }

func (c *SimpleConfig) GetLoginRoute() string { return c.LoginRoute }

func (c *SimpleConfig) GetDefaultRedirect() string { return c.DefaultRedirect }

func (c *SimpleConfig) GetLogoutRedirect() string { return c.LogoutRedirect }

func (c *SimpleConfig) GetAdminTheme() string { return c.AdminTheme }

func (c *SimpleConfig) GetAdminLayout() string { return c.AdminLayout }

func (c *SimpleConfig) GetViews() Views { return c.Views }
