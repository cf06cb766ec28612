package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/build"
)

type Config struct {
	//===============
	//  Identity
	//===============
	// Mail account the triage queue belongs to. Also the default IMAP username.
	userEmail string

	//===============
	// Storage
	//===============
	// sqlite database file
	databasePath string
	// Directory for archived newsletter markdown
	archiveDir string
	// Lock file held by the sync command so only one syncer runs per database
	lockPath string

	//===============
	// Mail
	//===============
	// IMAP server as host:port, TLS only
	imapAddress string
	// Empty means userEmail
	imapUsername string
	// Folder scanned when the user has no folder setting
	mailFolder string

	//===============
	// Scheduling
	//===============
	// Maximum number of users synced concurrently in one scheduler tick
	concurrency int
	// How often the scheduler looks for users whose sync interval elapsed
	schedulerTick time.Duration

	//===============
	// Politeness
	//===============
	// Minimum wait between two connections to the same remote host
	baseDelay time.Duration
	// Randomized variation added on top of delays
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff
	backoffMaxDuration time.Duration
	// Maximum time of a single remote call (IMAP dial, bookmark API request)
	timeout time.Duration
	// User agent sent to HTTP APIs
	userAgent string

	//===============
	// OAuth clients
	//===============
	googleClientID       string
	googleClientSecret   string
	raindropClientID     string
	raindropClientSecret string

	//===============
	// Logging
	//===============
	logLevel  string
	logFormat string

	// Whether the program simulates what it would do without
	// persisting triage state or touching the mailbox flags
	dryRun bool
}

type configDTO struct {
	UserEmail              string        `json:"userEmail"`
	DatabasePath           string        `json:"databasePath,omitempty"`
	ArchiveDir             string        `json:"archiveDir,omitempty"`
	LockPath               string        `json:"lockPath,omitempty"`
	ImapAddress            string        `json:"imapAddress,omitempty"`
	ImapUsername           string        `json:"imapUsername,omitempty"`
	MailFolder             string        `json:"mailFolder,omitempty"`
	Concurrency            int           `json:"concurrency,omitempty"`
	SchedulerTick          time.Duration `json:"schedulerTick,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	GoogleClientID         string        `json:"googleClientId,omitempty"`
	GoogleClientSecret     string        `json:"googleClientSecret,omitempty"`
	RaindropClientID       string        `json:"raindropClientId,omitempty"`
	RaindropClientSecret   string        `json:"raindropClientSecret,omitempty"`
	LogLevel               string        `json:"logLevel,omitempty"`
	LogFormat              string        `json:"logFormat,omitempty"`
	DryRun                 bool          `json:"dryRun,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	builder := WithDefault(dto.UserEmail)

	// only override when a non-zero value is provided
	if dto.DatabasePath != "" {
		builder.databasePath = dto.DatabasePath
	}
	if dto.ArchiveDir != "" {
		builder.archiveDir = dto.ArchiveDir
	}
	if dto.LockPath != "" {
		builder.lockPath = dto.LockPath
	}
	if dto.ImapAddress != "" {
		builder.imapAddress = dto.ImapAddress
	}
	builder.imapUsername = dto.ImapUsername
	if dto.MailFolder != "" {
		builder.mailFolder = dto.MailFolder
	}
	if dto.Concurrency != 0 {
		builder.concurrency = dto.Concurrency
	}
	if dto.SchedulerTick != 0 {
		builder.schedulerTick = dto.SchedulerTick
	}
	if dto.BaseDelay != 0 {
		builder.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		builder.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		builder.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		builder.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		builder.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		builder.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		builder.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Timeout != 0 {
		builder.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		builder.userAgent = dto.UserAgent
	}
	builder.googleClientID = dto.GoogleClientID
	builder.googleClientSecret = dto.GoogleClientSecret
	builder.raindropClientID = dto.RaindropClientID
	builder.raindropClientSecret = dto.RaindropClientSecret
	if dto.LogLevel != "" {
		builder.logLevel = dto.LogLevel
	}
	if dto.LogFormat != "" {
		builder.logFormat = dto.LogFormat
	}
	builder.dryRun = dto.DryRun

	return builder.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	if err := json.Unmarshal(configContent, &cfgDTO); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a Config for userEmail with default values for all other fields.
// userEmail is mandatory; Build fails when it is empty or malformed.
func WithDefault(userEmail string) *Config {
	defaultConfig := Config{
		userEmail:              strings.TrimSpace(userEmail),
		databasePath:           "newsletter-triage.db",
		archiveDir:             "archive",
		lockPath:               "newsletter-triage.lock",
		imapAddress:            "imap.gmail.com:993",
		mailFolder:             "INBOX",
		concurrency:            4,
		schedulerTick:          time.Minute,
		baseDelay:              2 * time.Second,
		jitter:                 500 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             4,
		backoffInitialDuration: 500 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     30 * time.Second,
		timeout:                30 * time.Second,
		userAgent:              build.UserAgent(),
		logLevel:               "info",
		logFormat:              "text",
	}
	return &defaultConfig
}

func (c *Config) WithUserEmail(email string) *Config {
	c.userEmail = strings.TrimSpace(email)
	return c
}

func (c *Config) WithDatabasePath(path string) *Config {
	c.databasePath = path
	return c
}

func (c *Config) WithArchiveDir(dir string) *Config {
	c.archiveDir = dir
	return c
}

func (c *Config) WithLockPath(path string) *Config {
	c.lockPath = path
	return c
}

func (c *Config) WithImapAddress(address string) *Config {
	c.imapAddress = address
	return c
}

func (c *Config) WithImapUsername(username string) *Config {
	c.imapUsername = username
	return c
}

func (c *Config) WithMailFolder(folder string) *Config {
	c.mailFolder = folder
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithSchedulerTick(tick time.Duration) *Config {
	c.schedulerTick = tick
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithGoogleClient(id, secret string) *Config {
	c.googleClientID = id
	c.googleClientSecret = secret
	return c
}

func (c *Config) WithRaindropClient(id, secret string) *Config {
	c.raindropClientID = id
	c.raindropClientSecret = secret
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithLogFormat(format string) *Config {
	c.logFormat = format
	return c
}

func (c *Config) WithDryRun(dryRun bool) *Config {
	c.dryRun = dryRun
	return c
}

func (c *Config) Build() (Config, error) {
	if c.userEmail == "" {
		return Config{}, fmt.Errorf("%w: userEmail cannot be empty", ErrInvalidConfig)
	}
	if at := strings.LastIndex(c.userEmail, "@"); at <= 0 || at == len(c.userEmail)-1 {
		return Config{}, fmt.Errorf("%w: userEmail %q is not an email address", ErrInvalidConfig, c.userEmail)
	}
	if _, _, err := net.SplitHostPort(c.imapAddress); err != nil {
		return Config{}, fmt.Errorf("%w: imapAddress must be host:port: %s", ErrInvalidConfig, err.Error())
	}
	if c.concurrency < 1 {
		return Config{}, fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.schedulerTick <= 0 {
		return Config{}, fmt.Errorf("%w: schedulerTick must be positive", ErrInvalidConfig)
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("%w: logFormat must be text or json", ErrInvalidConfig)
	}
	return *c, nil
}

func (c Config) UserEmail() string {
	return c.userEmail
}

func (c Config) DatabasePath() string {
	return c.databasePath
}

func (c Config) ArchiveDir() string {
	return c.archiveDir
}

func (c Config) LockPath() string {
	return c.lockPath
}

func (c Config) ImapAddress() string {
	return c.imapAddress
}

// ImapHost is the host part of ImapAddress, used as the pacing key.
func (c Config) ImapHost() string {
	host, _, err := net.SplitHostPort(c.imapAddress)
	if err != nil {
		return c.imapAddress
	}
	return host
}

func (c Config) ImapUsername() string {
	if c.imapUsername == "" {
		return c.userEmail
	}
	return c.imapUsername
}

func (c Config) MailFolder() string {
	return c.mailFolder
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) SchedulerTick() time.Duration {
	return c.schedulerTick
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) GoogleClientID() string {
	return c.googleClientID
}

func (c Config) GoogleClientSecret() string {
	return c.googleClientSecret
}

func (c Config) RaindropClientID() string {
	return c.raindropClientID
}

func (c Config) RaindropClientSecret() string {
	return c.raindropClientSecret
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) LogFormat() string {
	return c.logFormat
}

func (c Config) DryRun() bool {
	return c.dryRun
}
