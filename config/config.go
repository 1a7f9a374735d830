// Package config loads the gateway's static YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// RequestTemplate mirrors pkg/types/openai.RequestTemplate in a
// YAML-friendly shape, applied to chat-completions requests that omit
// these fields (spec §4.5 step 3).
type RequestTemplate struct {
	Model               string  `yaml:"model" json:"model"`
	Temperature         float32 `yaml:"temperature" json:"temperature"`
	MaxCompletionTokens int     `yaml:"max_completion_tokens" json:"max_completion_tokens"`
}

// GroupDataConfig points at the sidecar JSON file pkg/groupdata loads and
// serves over the admin listener, unrelated to the HTTP streaming core
// (spec §1).
type GroupDataConfig struct {
	Path string `yaml:"path" json:"path"`
}

// DiscoveryConfig configures the off-request-path service inventory helper
// in pkg/discovery.
type DiscoveryConfig struct {
	NATSURL string        `yaml:"natsUrl" json:"natsUrl"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

type Config struct {
	Debug bool `yaml:"debug" json:"debug"`

	ChatTemplate    *RequestTemplate `yaml:"chatTemplate" json:"chatTemplate"`
	SSEKeepAlive    time.Duration    `yaml:"sseKeepAlive" json:"sseKeepAlive"`
	AccessLog       bool             `yaml:"accessLog" json:"accessLog"`
	CorrelationHead string           `yaml:"correlationHeader" json:"correlationHeader"`

	GroupData GroupDataConfig `yaml:"groupData" json:"groupData"`
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`

	RedisMetricsAddrs []string `yaml:"redisMetricsAddrs" json:"redisMetricsAddrs"`
}

// LoadConfig loads the configuration from path. path may name a single YAML
// file, or a directory: in the latter case every *.yaml/*.yml fragment
// beneath it is decoded in lexical order into the same Config, later
// fragments overriding fields earlier ones set, so the configuration can be
// split across several files without a separate merge step.
func LoadConfig(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config path: %w", err)
	}

	var cfg Config

	if !info.IsDir() {
		if err := decodeFragment(path, &cfg); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	fragments, err := doublestar.Glob(os.DirFS(path), "**/*.y*ml")
	if err != nil {
		return nil, fmt.Errorf("failed to glob config fragments: %w", err)
	}

	sort.Strings(fragments)

	for _, fragment := range fragments {
		if err := decodeFragment(filepath.Join(path, fragment), &cfg); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func decodeFragment(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	return nil
}
