package config

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/localip"
	"gopkg.in/yaml.v2"
)

const (
	METHOD_GET    string = "GET"
	METHOD_POST   string = "POST"
	METHOD_DELETE string = "DELETE"

	TIMESTAMP_EPOCH   string = "unix-epoch"
	TIMESTAMP_RFC3339 string = "rfc3339"

	ONE_MB = 1024 * 1024
)

var AllowedMethods = []string{METHOD_GET, METHOD_POST, METHOD_DELETE}
var AllowedTimestampFormats = []string{TIMESTAMP_EPOCH, TIMESTAMP_RFC3339}
var AllowedLogLevels = []string{"debug", "info", "warn", "error", "fatal"}

type StringSet map[string]struct{}

func (ss *StringSet) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var arr []string

	err := unmarshal(&arr)
	if err != nil {
		return err
	}

	*ss = make(map[string]struct{})

	for _, elem := range arr {
		(*ss)[elem] = struct{}{}
	}

	return nil
}

func (ss StringSet) MarshalYAML() (interface{}, error) {
	arr := make([]string, 0, len(ss))

	for k := range ss {
		arr = append(arr, k)
	}
	sort.Strings(arr)

	return arr, nil
}

func (ss StringSet) Contains(s string) bool {
	_, ok := ss[s]
	return ok
}

type StatusConfig struct {
	Host                    string        `yaml:"host"`
	Port                    uint16        `yaml:"port"`
	HealthCheckPollInterval time.Duration `yaml:"health_check_poll_interval"`
	HealthCheckTimeout      time.Duration `yaml:"health_check_timeout"`
}

var defaultStatusConfig = StatusConfig{
	Host:                    "127.0.0.1",
	Port:                    0,
	HealthCheckPollInterval: 10 * time.Second,
	HealthCheckTimeout:      5 * time.Second,
}

type PrometheusConfig struct {
	Port uint16 `yaml:"port"`
}

type LoggingConfig struct {
	Level  string       `yaml:"level"`
	Format FormatConfig `yaml:"format"`
}

type FormatConfig struct {
	Timestamp string `yaml:"timestamp"`
}

var defaultLoggingConfig = LoggingConfig{
	Level:  "info",
	Format: FormatConfig{TIMESTAMP_EPOCH},
}

// CGIConfig maps a script extension (without the dot) to the interpreter
// that executes it.
type CGIConfig struct {
	Extensions map[string]string `yaml:"extensions"`
}

var defaultCGIConfig = CGIConfig{
	Extensions: map[string]string{"py": "/usr/bin/python3"},
}

type Redirect struct {
	Code int    `yaml:"code"`
	Path string `yaml:"path"`
}

type Location struct {
	Path              string         `yaml:"path"`
	Root              string         `yaml:"root,omitempty"`
	Index             string         `yaml:"index,omitempty"`
	Autoindex         *bool          `yaml:"autoindex,omitempty"`
	ClientMaxBodySize *int64         `yaml:"client_max_body_size,omitempty"`
	LimitExcept       StringSet      `yaml:"limit_except,omitempty"`
	ErrorPages        map[int]string `yaml:"error_pages,omitempty"`
	Redirect          *Redirect      `yaml:"redirect,omitempty"`

	// These fields are populated by the `Process` function.
	AutoindexEnabled bool  `yaml:"-"`
	MaxBodySize      int64 `yaml:"-"`
}

// Allows reports whether method is in the location's allowed set.
func (l *Location) Allows(method string) bool {
	return l.LimitExcept.Contains(method)
}

type ServerConfig struct {
	Listen            []string       `yaml:"listen"`
	ServerNames       []string       `yaml:"server_names,omitempty"`
	Index             string         `yaml:"index,omitempty"`
	Autoindex         bool           `yaml:"autoindex,omitempty"`
	ClientMaxBodySize *int64         `yaml:"client_max_body_size,omitempty"`
	ErrorPages        map[int]string `yaml:"error_pages,omitempty"`
	Locations         []*Location    `yaml:"locations"`

	// This field is populated by the `Process` function.
	ListenAddrs []string `yaml:"-"`
}

type Config struct {
	Logging               LoggingConfig    `yaml:"logging,omitempty"`
	Status                StatusConfig     `yaml:"status,omitempty"`
	Prometheus            PrometheusConfig `yaml:"prometheus,omitempty"`
	CGI                   CGIConfig        `yaml:"cgi,omitempty"`
	Servers               []*ServerConfig  `yaml:"servers"`
	Timeout               time.Duration    `yaml:"timeout,omitempty"`
	SweepInterval         time.Duration    `yaml:"sweep_interval,omitempty"`
	ChunkSize             int              `yaml:"chunk_size,omitempty"`
	MaxEvents             int              `yaml:"max_events,omitempty"`
	ErrorPagesDir         string           `yaml:"error_pages_dir,omitempty"`
	HTMLErrorTemplateFile string           `yaml:"html_error_template_file,omitempty"`
	PidFile               string           `yaml:"pid_file,omitempty"`

	// This field is populated by the `Process` function.
	Ip string `yaml:"-"`
}

var defaultConfig = Config{
	Logging:       defaultLoggingConfig,
	Status:        defaultStatusConfig,
	CGI:           defaultCGIConfig,
	Timeout:       5 * time.Second,
	ChunkSize:     4096,
	MaxEvents:     16,
	ErrorPagesDir: "./default_pages",
}

func DefaultConfig() (*Config, error) {
	c := defaultConfig
	c.CGI.Extensions = map[string]string{}
	for ext, interpreter := range defaultCGIConfig.Extensions {
		c.CGI.Extensions[ext] = interpreter
	}
	return &c, nil
}

func (c *Config) Process() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("Invalid timeout: %s", c.Timeout)
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = c.Timeout
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("Invalid sweep interval: %s", c.SweepInterval)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("Invalid chunk size: %d", c.ChunkSize)
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("Invalid max events: %d", c.MaxEvents)
	}
	if c.Status.HealthCheckPollInterval <= 0 || c.Status.HealthCheckTimeout <= 0 {
		return fmt.Errorf("Invalid health check interval or timeout: %s, %s", c.Status.HealthCheckPollInterval, c.Status.HealthCheckTimeout)
	}

	if !contains(AllowedLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("Invalid logging level: %s. Allowed values are %s", c.Logging.Level, AllowedLogLevels)
	}
	if !contains(AllowedTimestampFormats, c.Logging.Format.Timestamp) {
		return fmt.Errorf("Invalid timestamp format: %s. Allowed values are %s", c.Logging.Format.Timestamp, AllowedTimestampFormats)
	}

	for ext, interpreter := range c.CGI.Extensions {
		if ext == "" || strings.HasPrefix(ext, ".") {
			return fmt.Errorf("Invalid cgi extension: %q", ext)
		}
		if interpreter == "" {
			return fmt.Errorf("cgi extension %s has no interpreter", ext)
		}
	}

	if len(c.Servers) == 0 {
		return fmt.Errorf("at least one server must be configured")
	}

	for i, server := range c.Servers {
		if err := server.process(); err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}
	}

	// No default route: SERVER_NAME falls back to loopback.
	var localIPErr error
	c.Ip, localIPErr = localip.LocalIP()
	if localIPErr != nil {
		c.Ip = "127.0.0.1"
	}

	return nil
}

func (s *ServerConfig) process() error {
	if len(s.Listen) == 0 {
		return fmt.Errorf("listen group not found")
	}

	s.ListenAddrs = s.ListenAddrs[:0]
	for _, l := range s.Listen {
		addr, err := normalizeListen(l)
		if err != nil {
			return err
		}
		s.ListenAddrs = append(s.ListenAddrs, addr)
	}

	if s.ClientMaxBodySize == nil {
		size := int64(ONE_MB)
		s.ClientMaxBodySize = &size
	} else if *s.ClientMaxBodySize < 0 {
		return fmt.Errorf("Invalid client_max_body_size: %d", *s.ClientMaxBodySize)
	}

	if err := validateErrorPages(s.ErrorPages); err != nil {
		return err
	}

	for _, loc := range s.Locations {
		if err := s.resolveLocation(loc); err != nil {
			return err
		}
	}

	// The most specific location must win, so longer prefixes come first.
	sort.SliceStable(s.Locations, func(i, j int) bool {
		return len(s.Locations[i].Path) > len(s.Locations[j].Path)
	})

	return nil
}

func (s *ServerConfig) resolveLocation(loc *Location) error {
	if !strings.HasPrefix(loc.Path, "/") {
		return fmt.Errorf("Invalid location path: %q", loc.Path)
	}

	if loc.Redirect != nil {
		if loc.Redirect.Code < 300 || loc.Redirect.Code > 399 {
			return fmt.Errorf("location %s: invalid redirect code %d", loc.Path, loc.Redirect.Code)
		}
		if loc.Redirect.Path == "" {
			return fmt.Errorf("location %s: redirect without target", loc.Path)
		}
	} else if loc.Root == "" {
		return fmt.Errorf("location %s: root must be provided when no redirect is set", loc.Path)
	}

	if loc.LimitExcept == nil {
		loc.LimitExcept = StringSet{}
		for _, m := range AllowedMethods {
			loc.LimitExcept[m] = struct{}{}
		}
	}
	for m := range loc.LimitExcept {
		if !contains(AllowedMethods, m) {
			return fmt.Errorf("location %s: invalid method %s. Allowed values are %s", loc.Path, m, AllowedMethods)
		}
	}

	if loc.Autoindex == nil {
		loc.AutoindexEnabled = s.Autoindex
	} else {
		loc.AutoindexEnabled = *loc.Autoindex
	}

	if loc.ClientMaxBodySize == nil {
		loc.MaxBodySize = *s.ClientMaxBodySize
	} else if *loc.ClientMaxBodySize < 0 {
		return fmt.Errorf("location %s: invalid client_max_body_size %d", loc.Path, *loc.ClientMaxBodySize)
	} else {
		loc.MaxBodySize = *loc.ClientMaxBodySize
	}

	if loc.Index == "" {
		loc.Index = s.Index
	}

	if err := validateErrorPages(loc.ErrorPages); err != nil {
		return fmt.Errorf("location %s: %w", loc.Path, err)
	}
	for code, page := range s.ErrorPages {
		if loc.ErrorPages == nil {
			loc.ErrorPages = map[int]string{}
		}
		if _, ok := loc.ErrorPages[code]; !ok {
			loc.ErrorPages[code] = page
		}
	}

	return nil
}

func validateErrorPages(pages map[int]string) error {
	for code := range pages {
		if code < 400 || code > 599 {
			return fmt.Errorf("Invalid error code: %d", code)
		}
	}
	return nil
}

func normalizeListen(listen string) (string, error) {
	host, port := "0.0.0.0", listen
	if strings.Contains(listen, ":") {
		var err error
		host, port, err = net.SplitHostPort(listen)
		if err != nil {
			return "", fmt.Errorf("Invalid ip:port format: %s", listen)
		}
		if host == "" {
			host = "0.0.0.0"
		}
	}

	if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("Invalid ip address: %s", listen)
	}

	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("Port number out of range: %s", listen)
	}

	return net.JoinHostPort(host, strconv.Itoa(p)), nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func (c *Config) Initialize(configYAML []byte) error {
	return yaml.Unmarshal(configYAML, &c)
}

func InitConfigFromFile(path string) (*Config, error) {
	c, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = c.Initialize(b)
	if err != nil {
		return nil, err
	}

	err = c.Process()
	if err != nil {
		return nil, err
	}

	return c, nil
}
