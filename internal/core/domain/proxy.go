package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Proxy is one forward proxy drawn per request attempt. Credentials are
// optional but must come as a pair.
type Proxy struct {
	Scheme   string
	Endpoint string
	Port     int
	Username string
	Password string
}

func NewProxy(endpoint string, port int, username, password string) *Proxy {
	return &Proxy{
		Scheme:   "http",
		Endpoint: endpoint,
		Port:     port,
		Username: username,
		Password: password,
	}
}

// ParseProxyLine decodes one proxies-file line. Accepted forms are
// host:port and host:port:user:password.
func ParseProxyLine(line string) (*Proxy, error) {
	if line == "" {
		return nil, NewValidationError("proxy", line, "empty line")
	}
	if strings.HasPrefix(line, "#") {
		return nil, NewValidationError("proxy", line, "comment line")
	}
	if strings.HasPrefix(line, ":") {
		return nil, NewValidationError("proxy", line, "must not start with a colon")
	}
	if strings.ContainsAny(line, " \t\n") {
		return nil, NewValidationError("proxy", line, "must not contain whitespace")
	}

	parts := strings.Split(line, ":")
	if len(parts) != 2 && len(parts) != 4 {
		return nil, NewValidationError("proxy", line, "expected host:port or host:port:user:password")
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return nil, NewValidationError("proxy", line, "port must be a number between 1 and 65535")
	}

	proxy := NewProxy(parts[0], port, "", "")
	if len(parts) == 4 {
		if parts[2] == "" || parts[3] == "" {
			return nil, NewValidationError("proxy", line, "username and password must not be empty")
		}
		proxy.Username = parts[2]
		proxy.Password = parts[3]
	}

	if err := proxy.Validate(); err != nil {
		return nil, err
	}
	return proxy, nil
}

func (p *Proxy) Validate() error {
	if p.Scheme != "http" && p.Scheme != "https" {
		return NewValidationError("proxy scheme", p.Scheme, "must be http or https")
	}
	if p.Endpoint == "" {
		return NewValidationError("proxy endpoint", p.Endpoint, "must not be empty")
	}
	if p.Port < 1 || p.Port > 65535 {
		return NewValidationError("proxy port", p.Port, "must be between 1 and 65535")
	}
	if (p.Username == "") != (p.Password == "") {
		return NewValidationError("proxy credentials", p.Username, "username and password must come as a pair")
	}
	for _, field := range []string{p.Scheme, p.Endpoint, p.Username, p.Password} {
		if strings.ContainsAny(field, "#: ") {
			return NewValidationError("proxy", field, "fields must not contain '#', ':' or spaces")
		}
	}
	return nil
}

// ForRequest renders the proxy in URL form for the HTTP transport, like
// http://user:pw@host:port/.
func (p *Proxy) ForRequest() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.Username != "" && p.Password != "" {
		return fmt.Sprintf("%s://%s:%s@%s:%d/", p.Scheme, p.Username, p.Password, p.Endpoint, p.Port), nil
	}
	return fmt.Sprintf("%s://%s:%d/", p.Scheme, p.Endpoint, p.Port), nil
}

// String renders the proxy in proxies-file form. Credentials are included
// when present.
func (p *Proxy) String() string {
	if p.Username != "" || p.Password != "" {
		return fmt.Sprintf("%s:%d:%s:%s", p.Endpoint, p.Port, p.Username, p.Password)
	}
	return fmt.Sprintf("%s:%d", p.Endpoint, p.Port)
}
