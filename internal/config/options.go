package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"dqx0.com/go/httpfetch/httpx"
)

// optionsFile is the on-disk form of httpx.Options. header may be a single
// string or a list of lines.
type optionsFile struct {
	Proxy           string   `yaml:"proxy" toml:"proxy"`
	Timeout         *float64 `yaml:"timeout" toml:"timeout"`
	FollowLocation  *bool    `yaml:"follow_location" toml:"follow_location"`
	RequestFullURI  *bool    `yaml:"request_fulluri" toml:"request_fulluri"`
	MaxRedirects    *int     `yaml:"max_redirects" toml:"max_redirects"`
	Method          string   `yaml:"method" toml:"method"`
	ProtocolVersion *float64 `yaml:"protocol_version" toml:"protocol_version"`
	Header          any      `yaml:"header" toml:"header"`
	Content         string   `yaml:"content" toml:"content"`
	UserAgent       *string  `yaml:"user_agent" toml:"user_agent"`
	IgnoreErrors    *bool    `yaml:"ignore_errors" toml:"ignore_errors"`
	AutoDecode      *bool    `yaml:"auto_decode" toml:"auto_decode"`
	PeerName        string   `yaml:"peer_name" toml:"peer_name"`
	MaxHeaderLine   int      `yaml:"max_header_line" toml:"max_header_line"`
}

// LoadOptions reads fetch options from a .yaml, .yml or .toml file.
func LoadOptions(path string) (httpx.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return httpx.Options{}, fmt.Errorf("read options: %w", err)
	}
	return ParseOptions(data, filepath.Ext(path))
}

// ParseOptions decodes data in the format named by ext.
func ParseOptions(data []byte, ext string) (httpx.Options, error) {
	var f optionsFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return httpx.Options{}, fmt.Errorf("YAML parse error: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return httpx.Options{}, fmt.Errorf("TOML parse error: %w", err)
		}
	default:
		return httpx.Options{}, fmt.Errorf("unsupported options format %q", ext)
	}

	header, err := headerLines(f.Header)
	if err != nil {
		return httpx.Options{}, err
	}
	opts := httpx.Options{
		Proxy:           f.Proxy,
		Timeout:         f.Timeout,
		FollowLocation:  f.FollowLocation,
		RequestFullURI:  f.RequestFullURI,
		MaxRedirects:    f.MaxRedirects,
		Method:          f.Method,
		ProtocolVersion: f.ProtocolVersion,
		Header:          header,
		UserAgent:       f.UserAgent,
		IgnoreErrors:    f.IgnoreErrors,
		AutoDecode:      f.AutoDecode,
		PeerName:        f.PeerName,
		MaxHeaderLine:   f.MaxHeaderLine,
	}
	if f.Content != "" {
		opts.Content = []byte(f.Content)
	}
	return opts, nil
}

func headerLines(v any) ([]string, error) {
	switch h := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{h}, nil
	case []any:
		out := make([]string, 0, len(h))
		for i, e := range h {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("header[%d]: want string, got %T", i, e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("header: want string or list, got %T", v)
	}
}
