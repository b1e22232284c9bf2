package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cobolscope/internal/artifact"
	"cobolscope/internal/callgraph"
	"cobolscope/internal/pipeline/cobol"
	cb "cobolscope/internal/types/cobol"
)

const envPrefix = "COBOLSCOPE_"

type Config struct {
	SourceDir     string   `yaml:"source_dir"`
	Extensions    []string `yaml:"extensions"`
	IgnoreDirs    []string `yaml:"ignore_dirs"`
	MaxDepth      int      `yaml:"max_depth"`
	Encoding      string   `yaml:"encoding"`
	SequenceStart int      `yaml:"sequence_start"`
	Workers       int      `yaml:"workers"`
	LogLevel      string   `yaml:"log_level"`

	Copybooks  CopybookConfig     `yaml:"copybooks"`
	Analysis   AnalysisConfig     `yaml:"analysis"`
	Exclusions []cb.ExclusionRule `yaml:"exclusions"`
	Score      callgraph.Weights  `yaml:"score"`
	Artifact   artifact.Config    `yaml:"artifact"`
}

type CopybookConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Dirs         []string `yaml:"dirs"`
	CacheEntries int      `yaml:"cache_entries"`
}

// AnalysisConfig flattens the stage and graph options under one YAML key.
type AnalysisConfig struct {
	Stages cobol.Options     `yaml:",inline"`
	Graph  callgraph.Options `yaml:",inline"`
}

func Defaults() Config {
	return Config{
		SourceDir:  ".",
		Extensions: []string{".cbl", ".cob"},
		IgnoreDirs: []string{".git", "node_modules"},
		Encoding:   "latin-1",
		Workers:    4,
		LogLevel:   "info",
		Copybooks: CopybookConfig{
			Enabled:      true,
			CacheEntries: 256,
		},
		Analysis: AnalysisConfig{
			Stages: cobol.DefaultOptions(),
			Graph:  callgraph.DefaultOptions(),
		},
		Score: callgraph.DefaultWeights(),
		Artifact: artifact.Config{
			Backend: artifact.BackendDisk,
			Dir:     "out",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, a .env file in the working directory and COBOLSCOPE_* variables, in
// that order of increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.SourceDir = firstNonEmpty(env("SOURCE_DIR"), c.SourceDir)
	c.Encoding = firstNonEmpty(env("ENCODING"), c.Encoding)
	c.LogLevel = firstNonEmpty(env("LOG_LEVEL"), os.Getenv("LOG_LEVEL"), c.LogLevel)
	if v := env("EXTENSIONS"); v != "" {
		c.Extensions = strings.Split(v, ",")
	}
	if v := env("COPYBOOK_DIRS"); v != "" {
		c.Copybooks.Dirs = filepath.SplitList(v)
	}
	if v := env("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWORKERS: %w", envPrefix, err)
		}
		c.Workers = n
	}
	if v := env("SEQUENCE_START"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sSEQUENCE_START: %w", envPrefix, err)
		}
		c.SequenceStart = n
	}

	a := &c.Artifact
	a.Backend = artifact.Backend(firstNonEmpty(env("ARTIFACT_BACKEND"), string(a.Backend)))
	a.Dir = firstNonEmpty(env("ARTIFACT_DIR"), a.Dir)
	a.DatabaseURL = firstNonEmpty(env("DATABASE_URL"), os.Getenv("DATABASE_URL"), a.DatabaseURL)
	a.S3.Endpoint = firstNonEmpty(env("S3_ENDPOINT"), a.S3.Endpoint)
	a.S3.Region = firstNonEmpty(env("S3_REGION"), a.S3.Region)
	a.S3.AccessKey = firstNonEmpty(env("S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER"), a.S3.AccessKey)
	a.S3.SecretKey = firstNonEmpty(env("S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD"), a.S3.SecretKey)
	a.S3.Bucket = firstNonEmpty(env("S3_BUCKET"), a.S3.Bucket)
	if v := env("S3_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sS3_USE_SSL: %w", envPrefix, err)
		}
		a.S3.UseSSL = b
	}
	return nil
}

func (c *Config) normalize() {
	exts := make([]string, 0, len(c.Extensions))
	for _, e := range c.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	c.Extensions = exts
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

func (c *Config) Validate() error {
	if len(c.Extensions) == 0 {
		return fmt.Errorf("config: at least one extension is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be >= 1, got %d", c.Workers)
	}
	if c.SequenceStart < 0 || c.SequenceStart >= cb.MaxSequence {
		return fmt.Errorf("config: sequence_start out of range: %d", c.SequenceStart)
	}
	for i, r := range c.Exclusions {
		switch r.Match {
		case cb.MatchExact, cb.MatchPrefix:
		default:
			return fmt.Errorf("config: exclusions[%d]: unknown match %q", i, r.Match)
		}
		if strings.TrimSpace(r.Pattern) == "" {
			return fmt.Errorf("config: exclusions[%d]: pattern is required", i)
		}
	}
	return nil
}

// AnalyzerConfig maps the file-level settings onto one Analyzer.
func (c *Config) AnalyzerConfig() cobol.AnalyzerConfig {
	dirs := c.Copybooks.Dirs
	if len(dirs) == 0 && c.SourceDir != "" {
		dirs = []string{c.SourceDir}
	}
	return cobol.AnalyzerConfig{
		Options:       c.Analysis.Stages,
		Graph:         c.Analysis.Graph,
		Weights:       c.Score,
		Exclusions:    c.Exclusions,
		SequenceStart: c.SequenceStart,
		Encoding:      c.Encoding,
		CopybookDirs:  dirs,
		CacheEntries:  c.Copybooks.CacheEntries,
		DisableExpand: !c.Copybooks.Enabled,
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
