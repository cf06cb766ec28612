package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/newsletter-triage/internal/config"
	"github.com/spf13/cobra"
)

// UserEnvVar names the environment variable consulted when --user is not set.
const UserEnvVar = "NEWSLETTER_TRIAGE_USER"

var (
	cfgFile       string
	userEmail     string
	databasePath  string
	archiveDir    string
	lockPath      string
	imapAddress   string
	imapUsername  string
	mailFolder    string
	concurrency   int
	schedulerTick time.Duration
	maxAttempt    int
	timeout       time.Duration
	baseDelay     time.Duration
	jitter        time.Duration
	randomSeed    int64
	userAgent     string
	logLevel      string
	logFormat     string
	dryRun        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "newsletter-triage",
	Short: "Turn newsletters into a reviewable queue of links.",
	Long: `newsletter-triage reads newsletters from your mailbox, strips the
email boilerplate (tracking pixels, unsubscribe footers, sponsor blocks),
and keeps the article links as a triage queue.

Each link can be saved to a bookmark service or discarded. Syncing is
incremental and safe to repeat: a newsletter is only ever stored once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// Root exposes the command tree so tests can run commands in process.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/newsletter-triage.json)")
	flags.StringVar(&userEmail, "user", "", "mail account whose queue is used (default $"+UserEnvVar+")")
	flags.StringVar(&databasePath, "db", "", "sqlite database file")
	flags.StringVar(&archiveDir, "archive-dir", "", "directory for archived newsletter markdown")
	flags.StringVar(&lockPath, "lock-file", "", "lock file held while syncing")
	flags.StringVar(&imapAddress, "imap-address", "", "IMAP server as host:port")
	flags.StringVar(&imapUsername, "imap-username", "", "IMAP login (defaults to --user)")
	flags.StringVar(&mailFolder, "mail-folder", "", "folder scanned when the user has no folder setting")
	flags.IntVar(&concurrency, "concurrency", 0, "number of users synced at the same time")
	flags.DurationVar(&schedulerTick, "scheduler-tick", 0, "how often sync --watch looks for due users")
	flags.IntVar(&maxAttempt, "max-attempt", 0, "attempts for a failing remote call")
	flags.DurationVar(&timeout, "timeout", 0, "timeout for remote calls")
	flags.DurationVar(&baseDelay, "base-delay", 0, "minimum delay between connections to the same host")
	flags.DurationVar(&jitter, "jitter", 0, "random jitter added to delays")
	flags.Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	flags.StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "", "text or json")
	flags.BoolVar(&dryRun, "dry-run", false, "fetch and process without writing anything")
}

// InitConfigWithError builds the Config for a command.
// A config file, when given, is used as is. Otherwise flags override defaults,
// and the user falls back to the environment.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	user := strings.TrimSpace(userEmail)
	if user == "" {
		user = strings.TrimSpace(os.Getenv(UserEnvVar))
	}
	if user == "" {
		return config.Config{}, fmt.Errorf("%w: --user or $%s is required", config.ErrInvalidConfig, UserEnvVar)
	}

	configBuilder := config.WithDefault(user)

	if databasePath != "" {
		configBuilder = configBuilder.WithDatabasePath(databasePath)
	}

	if archiveDir != "" {
		configBuilder = configBuilder.WithArchiveDir(archiveDir)
	}

	if lockPath != "" {
		configBuilder = configBuilder.WithLockPath(lockPath)
	}

	if imapAddress != "" {
		configBuilder = configBuilder.WithImapAddress(imapAddress)
	}

	if imapUsername != "" {
		configBuilder = configBuilder.WithImapUsername(imapUsername)
	}

	if mailFolder != "" {
		configBuilder = configBuilder.WithMailFolder(mailFolder)
	}

	if concurrency > 0 {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}

	if schedulerTick > 0 {
		configBuilder = configBuilder.WithSchedulerTick(schedulerTick)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if baseDelay > 0 {
		configBuilder = configBuilder.WithBaseDelay(baseDelay)
	}

	if jitter > 0 {
		configBuilder = configBuilder.WithJitter(jitter)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if logFormat != "" {
		configBuilder = configBuilder.WithLogFormat(logFormat)
	}

	if dryRun {
		configBuilder = configBuilder.WithDryRun(dryRun)
	}

	// OAuth client secrets never come from flags
	configBuilder = configBuilder.
		WithGoogleClient(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET")).
		WithRaindropClient(os.Getenv("RAINDROP_CLIENT_ID"), os.Getenv("RAINDROP_CLIENT_SECRET"))

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func ResetFlags() {
	cfgFile = ""
	userEmail = ""
	databasePath = ""
	archiveDir = ""
	lockPath = ""
	imapAddress = ""
	imapUsername = ""
	mailFolder = ""
	concurrency = 0
	schedulerTick = 0
	maxAttempt = 0
	timeout = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	userAgent = ""
	logLevel = ""
	logFormat = ""
	dryRun = false
	resetCommandFlags()
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetUserForTest(email string) {
	userEmail = email
}

func SetDatabasePathForTest(path string) {
	databasePath = path
}

func SetArchiveDirForTest(dir string) {
	archiveDir = dir
}

func SetLockPathForTest(path string) {
	lockPath = path
}

func SetImapAddressForTest(address string) {
	imapAddress = address
}

func SetMailFolderForTest(folder string) {
	mailFolder = folder
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetBaseDelayForTest(delay time.Duration) {
	baseDelay = delay
}

func SetJitterForTest(j time.Duration) {
	jitter = j
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetLogFormatForTest(format string) {
	logFormat = format
}

func SetDryRunForTest(dry bool) {
	dryRun = dry
}

// resetCommandFlags clears subcommand flags between in-process runs.
func resetCommandFlags() {
	sanitizeAsMail = false
	sanitizeLinks = false
	syncWatch = false
	syncAll = false
	listStatus = "pending"
	listNewsletter = ""
	reviewSave = false
	reviewDiscard = false
}
