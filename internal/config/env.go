package config

import (
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// clusterNameRegex matches bare cluster names such as "mainnet-beta".
//
//nolint:gochecknoglobals // compiled once
var clusterNameRegex = regexp.MustCompile(`^[a-z][a-z-]{1,31}$`)

// Environment variable names.
const (
	EnvHome           = "SANDBOX_HOME"
	EnvRPC            = "SANDBOX_RPC"
	EnvListen         = "SANDBOX_LISTEN"
	EnvOutputFormat   = "SANDBOX_OUTPUT_FORMAT"
	EnvVerbose        = "SANDBOX_VERBOSE"
	EnvLogLevel       = "SANDBOX_LOG_LEVEL"
	EnvApproval       = "SANDBOX_APPROVAL"
	EnvWalletName     = "SANDBOX_WALLET"
	EnvWalletPassword = "SANDBOX_WALLET_PASSWORD" // #nosec G101 -- false positive, this is a const name not a credential
	EnvNoColor        = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvRPC); v != "" {
		if u := SanitizeRPC(v); u != "" {
			cfg.Network.RPC = u
		}
	}

	if v := os.Getenv(EnvListen); v != "" {
		cfg.Server.Listen = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvApproval); v != "" {
		cfg.Wallet.Approval = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvWalletName); v != "" {
		cfg.Wallet.Name = strings.TrimSpace(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL trims copy-paste artifacts from an endpoint URL.
// Returns an empty string when the result is not an absolute http(s) URL.
func SanitizeURL(raw string) string {
	raw = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	raw = strings.Trim(raw, `"'`)

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// SanitizeRPC accepts an endpoint URL or a bare cluster name such as
// "devnet". Returns an empty string for anything else.
func SanitizeRPC(raw string) string {
	if u := SanitizeURL(raw); u != "" {
		return u
	}
	name := strings.ToLower(strings.TrimSpace(raw))
	if clusterNameRegex.MatchString(name) {
		return name
	}
	return ""
}
