package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every configuration key when read from the environment.
	EnvPrefix = "PULL_SHARK"
	// DefaultConfigName is the base name of the optional YAML config file.
	DefaultConfigName = ".pull-shark"
)

var (
	ErrMissingToken   = errors.New("github token is required (GITHUB_TOKEN, GH_TOKEN or GH_TOKEN_SCRIPT)")
	ErrMissingOwner   = errors.New("repository owner is required (REPO_OWNER or GITHUB_OWNER)")
	ErrMissingRepo    = errors.New("repository name is required (REPO_NAME or GITHUB_REPO)")
	ErrMissingLogFile = errors.New("log file path is required (LOG_FILE or LOG_FILE_PATH)")
)

type Config struct {
	GithubToken  string        `mapstructure:"github_token"`
	GithubOwner  string        `mapstructure:"github_owner"`
	GithubRepo   string        `mapstructure:"github_repo"`
	LogFile      string        `mapstructure:"log_file"`
	LocalLogFile string        `mapstructure:"local_log_file"`
	APIBaseURL   string        `mapstructure:"api_base_url"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	DeleteBranch bool          `mapstructure:"delete_branch"`
	Retry        RetryConfig   `mapstructure:"retry"`
	Wait         WaitConfig    `mapstructure:"wait"`
	Content      ContentConfig `mapstructure:"content"`
}

// RetryConfig mirrors the executor retry policy.
type RetryConfig struct {
	MaxAttempts          int           `mapstructure:"max_attempts"`
	BackoffUnit          time.Duration `mapstructure:"backoff_unit"`
	RateLimitFloor       time.Duration `mapstructure:"rate_limit_floor"`
	RateLimitPadding     time.Duration `mapstructure:"rate_limit_padding"`
	RateLimitDefaultWait time.Duration `mapstructure:"rate_limit_default_wait"`
}

// WaitConfig bounds the readiness polls that follow resource creation.
type WaitConfig struct {
	PollAttempts      int           `mapstructure:"poll_attempts"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	BranchDeleteDelay time.Duration `mapstructure:"branch_delete_delay"`
}

// ContentConfig holds the templates for everything the run writes to GitHub.
type ContentConfig struct {
	FilePath        string `mapstructure:"file_path"`
	BranchPrefix    string `mapstructure:"branch_prefix"`
	BranchTemplate  string `mapstructure:"branch_template"`
	RepoDescription string `mapstructure:"repo_description"`
	CommitMessage   string `mapstructure:"commit_message"`
	PRTitle         string `mapstructure:"pr_title"`
	PRBody          string `mapstructure:"pr_body"`
	MergeTitle      string `mapstructure:"merge_title"`
	MergeMessage    string `mapstructure:"merge_message"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:   "https://api.github.com/",
		LogLevel:     "info",
		LogFormat:    "console",
		DeleteBranch: true,
		Retry: RetryConfig{
			MaxAttempts:          5,
			BackoffUnit:          time.Second,
			RateLimitFloor:       10 * time.Second,
			RateLimitPadding:     time.Second,
			RateLimitDefaultWait: 60 * time.Second,
		},
		Wait: WaitConfig{
			PollAttempts:      10,
			PollInterval:      2 * time.Second,
			BranchDeleteDelay: 10 * time.Second,
		},
		Content: ContentConfig{
			FilePath:        "PULL_SHARK.md",
			BranchPrefix:    "pull-shark",
			BranchTemplate:  "{prefix}/{date}-{short_id}",
			RepoDescription: "Automated pull request activity",
			CommitMessage:   "chore: update activity log ({revision})",
			PRTitle:         "Automated update {revision}",
			PRBody:          "Automated pull request created by run {run_id}.",
			MergeTitle:      "Merge pull request #{pr_number} (Automated)",
			MergeMessage:    "Merged by pull-shark run {run_id}",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GithubToken) == "" {
		return ErrMissingToken
	}
	if c.GithubOwner == "" {
		return ErrMissingOwner
	}
	if c.GithubRepo == "" {
		return ErrMissingRepo
	}
	if strings.TrimSpace(c.LogFile) == "" {
		return ErrMissingLogFile
	}
	if err := ValidateGitHubToken(c.GithubToken); err != nil {
		return fmt.Errorf("invalid github_token: %w", err)
	}
	if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
		return fmt.Errorf("invalid github configuration: %w", err)
	}
	if path.IsAbs(c.LogFile) {
		return fmt.Errorf("log_file must be relative to the repository root")
	}
	if strings.Contains(c.LogFile, "..") {
		return fmt.Errorf("log_file contains invalid path traversal")
	}
	if err := validateBaseURL(c.APIBaseURL); err != nil {
		return fmt.Errorf("invalid api_base_url: %w", err)
	}
	if err := c.Retry.validate(); err != nil {
		return fmt.Errorf("invalid retry configuration: %w", err)
	}
	if err := c.Wait.validate(); err != nil {
		return fmt.Errorf("invalid wait configuration: %w", err)
	}
	if err := c.Content.validate(); err != nil {
		return fmt.Errorf("invalid content configuration: %w", err)
	}
	return nil
}

func (r RetryConfig) validate() error {
	if r.MaxAttempts < 1 || r.MaxAttempts > 20 {
		return fmt.Errorf("max_attempts must be between 1 and 20, got %d", r.MaxAttempts)
	}
	if r.BackoffUnit < 0 || r.RateLimitFloor < 0 || r.RateLimitPadding < 0 || r.RateLimitDefaultWait < 0 {
		return fmt.Errorf("durations cannot be negative")
	}
	return nil
}

func (w WaitConfig) validate() error {
	if w.PollAttempts < 1 {
		return fmt.Errorf("poll_attempts must be at least 1, got %d", w.PollAttempts)
	}
	if w.PollInterval < 0 || w.BranchDeleteDelay < 0 {
		return fmt.Errorf("durations cannot be negative")
	}
	return nil
}

func (c ContentConfig) validate() error {
	required := []struct{ key, value string }{
		{"file_path", c.FilePath},
		{"branch_prefix", c.BranchPrefix},
		{"branch_template", c.BranchTemplate},
		{"commit_message", c.CommitMessage},
		{"pr_title", c.PRTitle},
		{"merge_title", c.MergeTitle},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s cannot be empty", field.key)
		}
	}
	if path.IsAbs(c.FilePath) {
		return fmt.Errorf("file_path must be relative to the repository root")
	}
	if strings.Contains(c.FilePath, "..") {
		return fmt.Errorf("file_path contains invalid path traversal")
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

var (
	classicPAT     = regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	fineGrainedPAT = regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]{82}$`)
	prefixedToken  = regexp.MustCompile(`^gh[pousr]_[a-zA-Z0-9]{36}$`)
)

// ValidateGitHubToken validates GitHub token format (exported for reuse)
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 40 {
		return fmt.Errorf("token too short: expected at least 40 characters")
	}
	if !classicPAT.MatchString(token) &&
		!fineGrainedPAT.MatchString(token) &&
		!prefixedToken.MatchString(token) {
		return fmt.Errorf("invalid token format")
	}
	return nil
}

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse)
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	validName := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

// envBindings lists the plain environment names accepted for each key, in
// priority order, next to the prefixed form.
var envBindings = map[string][]string{
	"github_token":   {"GITHUB_TOKEN", "GH_TOKEN", "GH_TOKEN_SCRIPT"},
	"github_owner":   {"REPO_OWNER", "GITHUB_OWNER"},
	"github_repo":    {"REPO_NAME", "GITHUB_REPO"},
	"log_file":       {"LOG_FILE", "LOG_FILE_PATH"},
	"local_log_file": {},
	"log_level":      {"LOG_LEVEL"},
}

// Load reads configuration from the optional YAML file, the environment and
// defaults, fills owner and repository from the git checkout when unset, and
// validates the result. An empty configFile searches the working directory
// for .pull-shark.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		input := append([]string{key}, names...)
		input = append(input, EnvPrefix+"_"+strings.ToUpper(key))
		if err := v.BindEnv(input...); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", key, err)
		}
	}
	setDefaults(v, DefaultConfig())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.GithubToken = strings.TrimSpace(cfg.GithubToken)
	if err := populateRepositoryDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to resolve repository: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("github_token", "")
	v.SetDefault("github_owner", "")
	v.SetDefault("github_repo", "")
	v.SetDefault("log_file", "")
	v.SetDefault("local_log_file", "")
	v.SetDefault("api_base_url", d.APIBaseURL)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("delete_branch", d.DeleteBranch)
	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.backoff_unit", d.Retry.BackoffUnit)
	v.SetDefault("retry.rate_limit_floor", d.Retry.RateLimitFloor)
	v.SetDefault("retry.rate_limit_padding", d.Retry.RateLimitPadding)
	v.SetDefault("retry.rate_limit_default_wait", d.Retry.RateLimitDefaultWait)
	v.SetDefault("wait.poll_attempts", d.Wait.PollAttempts)
	v.SetDefault("wait.poll_interval", d.Wait.PollInterval)
	v.SetDefault("wait.branch_delete_delay", d.Wait.BranchDeleteDelay)
	v.SetDefault("content.file_path", d.Content.FilePath)
	v.SetDefault("content.branch_prefix", d.Content.BranchPrefix)
	v.SetDefault("content.branch_template", d.Content.BranchTemplate)
	v.SetDefault("content.repo_description", d.Content.RepoDescription)
	v.SetDefault("content.commit_message", d.Content.CommitMessage)
	v.SetDefault("content.pr_title", d.Content.PRTitle)
	v.SetDefault("content.pr_body", d.Content.PRBody)
	v.SetDefault("content.merge_title", d.Content.MergeTitle)
	v.SetDefault("content.merge_message", d.Content.MergeMessage)
}
