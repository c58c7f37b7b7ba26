// Package config loads a YAML description of listeners and services and
// builds the immutable service.Bundle that serves them, plus each
// listener's TLS configuration.
package config

// File is the top-level YAML document.
type File struct {
	Listeners []ListenerSpec `yaml:"listeners"`
	Services  []ServiceSpec  `yaml:"services"`
}

// ListenerSpec describes one TCP listener. Every listener serves the same
// service table; there is no per-listener routing split.
type ListenerSpec struct {
	Name    string   `yaml:"name"`
	Address string   `yaml:"address"`
	TLS     *TLSSpec `yaml:"tls,omitempty"`
}

// TLSSpec names the certificate material for a listener, either a static
// cert/key pair or ACME provisioning. Exactly one of CertFile/KeyFile or
// ACME should be set; ACME takes precedence if both are present.
type TLSSpec struct {
	CertFile string    `yaml:"cert_file"`
	KeyFile  string    `yaml:"key_file"`
	ACME     *ACMESpec `yaml:"acme,omitempty"`
}

// ACMESpec configures automatic certificate provisioning for a listener.
type ACMESpec struct {
	Domains   []string `yaml:"domains"`
	Email     string   `yaml:"email"`
	CacheDir  string   `yaml:"cache_dir"`
	AcceptTOS bool     `yaml:"accept_tos"`
}

// ServiceSpec describes one routing rule: the filters that admit a
// request, the upstream group a matching request is load balanced over,
// and the header rewrites applied on the way in and out.
//
// A service's body filters cannot be expressed in YAML, since they run
// arbitrary Go closures over a buffered body; Build never attaches any.
// A service that needs them is constructed directly with service.New and
// service.WithBodyFilters instead of going through Build.
type ServiceSpec struct {
	Name           string         `yaml:"name"`
	Filters        []FilterSpec   `yaml:"filters"`
	Upstreams      []UpstreamSpec `yaml:"upstreams"`
	Middleware     MiddlewareSpec `yaml:"middleware"`
	NotFoundBody   string         `yaml:"not_found_body"`
}

// FilterSpec names one header filter. Kind selects which filter
// constructor (filter.Method, filter.HostRegex, filter.PathRegex,
// filter.IPWhitelist, filter.IPBlacklist) is used; Value and Values are
// interpreted according to
// Kind. Kind "jwt" builds a filter.JWTBearer filter and is configured
// through JWT instead of Value/Values.
type FilterSpec struct {
	Kind   string   `yaml:"kind"` // method, host, path, ip_whitelist, ip_blacklist, jwt
	Value  string   `yaml:"value,omitempty"`
	Values []string `yaml:"values,omitempty"`
	JWT    *JWTSpec `yaml:"jwt,omitempty"`
}

// JWTSpec configures a "jwt" FilterSpec's verification key. Exactly one
// of Secret or JWKSURL should be set: Secret builds a static HMAC
// jwt.Keyfunc, JWKSURL builds one that resolves RSA keys from a remote
// JSON Web Key Set, cached for JWKSTTL, a Go duration string (default 5
// minutes if empty).
type JWTSpec struct {
	Secret  string `yaml:"secret,omitempty"`
	JWKSURL string `yaml:"jwks_url,omitempty"`
	JWKSTTL string `yaml:"jwks_ttl,omitempty"`
}

// UpstreamSpec names one backend target.
type UpstreamSpec struct {
	Address string `yaml:"address"`
	TLS     bool   `yaml:"tls"`
}

// MiddlewareSpec is a declarative subset of internal/middleware's builtin
// header-rewrite steps.
type MiddlewareSpec struct {
	AddRequestHeaders     map[string]string `yaml:"add_request_headers,omitempty"`
	RemoveRequestHeaders  []string          `yaml:"remove_request_headers,omitempty"`
	AddResponseHeaders    map[string]string `yaml:"add_response_headers,omitempty"`
	RemoveResponseHeaders []string          `yaml:"remove_response_headers,omitempty"`
	TagUpstreamHeader     string            `yaml:"tag_upstream_header,omitempty"`
}
