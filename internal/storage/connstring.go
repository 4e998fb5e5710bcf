package storage

import "strings"

// Well-known connection string keys.
const (
	ConnEndpoint = "Endpoint"
	ConnAccount  = "AccountName"
	ConnKey      = "AccountKey"
	ConnRegion   = "Region"
	ConnProtocol = "DefaultEndpointsProtocol"
)

// ConnectionString is a parsed "Key=Value;Key=Value" descriptor, e.g.
//
//	DefaultEndpointsProtocol=https;Endpoint=s3.example.com;AccountName=app;AccountKey=c2VjcmV0
//
// Values may contain '='. Segments without '=' are ignored.
type ConnectionString []connPart

type connPart struct {
	key   string
	value string
}

// ParseConnectionString splits s into its key/value parts, keeping order.
func ParseConnectionString(s string) ConnectionString {
	var cs ConnectionString
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k == "" {
			continue
		}
		cs = append(cs, connPart{key: k, value: v})
	}
	return cs
}

// Get returns the value of the first part named key.
func (cs ConnectionString) Get(key string) (string, bool) {
	for _, p := range cs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Apply fills the fields of opts that the descriptor names. Values in the
// descriptor win over the ones already set.
func (cs ConnectionString) Apply(opts *Options) {
	if v, ok := cs.Get(ConnEndpoint); ok {
		rest, secure := stripScheme(v)
		opts.Endpoint = rest
		if secure != nil {
			opts.UseSSL = *secure
		}
	}
	if v, ok := cs.Get(ConnProtocol); ok {
		opts.UseSSL = strings.EqualFold(v, "https")
	}
	if v, ok := cs.Get(ConnAccount); ok {
		opts.Account = v
	}
	if v, ok := cs.Get(ConnKey); ok {
		opts.Secret = v
	}
	if v, ok := cs.Get(ConnRegion); ok {
		opts.Region = v
	}
}

func stripScheme(endpoint string) (string, *bool) {
	secure := true
	insecure := false
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), &secure
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), &insecure
	default:
		return endpoint, nil
	}
}
