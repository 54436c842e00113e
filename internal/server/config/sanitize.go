package config

// masked replaces secrets in logged settings.
const masked = "<set>"

// Sanitize returns a copy of cfg safe to log: the admin token is replaced
// by a marker that only shows whether one is configured.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	out := *cfg
	if out.Server.Admin.Token != "" {
		out.Server.Admin.Token = masked
	}
	return &out
}
