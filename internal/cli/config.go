package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/config"
	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify sandbox configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.phantom-sandbox/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  sandbox config init
  sandbox config init --force`,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings after environment overrides.`,
	Example: `  sandbox config show
  sandbox config show -o json`,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree.`,
	Example: `  sandbox config get network.rpc
  sandbox config get wallet.approval
  sandbox config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its path.

The path uses dot notation to navigate the configuration tree.
The configuration file will be updated immediately.`,
	Example: `  sandbox config set network.rpc devnet
  sandbox config set wallet.approval auto
  sandbox config set server.refresh_seconds 0`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	configCmd.GroupID = "config"
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	configPath := config.Path(config.ExpandHome(cc.Cfg.Home))

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return sandboxerr.WithSuggestion(
			sandboxerr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cc.Cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - network.rpc: RPC endpoint or cluster name (devnet, testnet, ...)")
	outln(w, "  - server.listen: Address the sandbox page is served on")
	outln(w, "  - wallet.name: Wallet injected as the provider")
	outln(w, "  - wallet.approval: How requests are approved (prompt/auto/reject)")
	outln(w, "  - logging.level: Log level (off/error/info/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	if cc.Fmt.IsJSON() {
		return displayConfigJSON(w, cc.Cfg)
	}
	return displayConfigText(w, cc.Cfg)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	path := args[0]

	value, err := getConfigValue(cc.Cfg, path)
	if err != nil {
		return sandboxerr.WithSuggestion(err, fmt.Sprintf("configuration path '%s' not found", path))
	}

	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	path, value := args[0], args[1]

	if _, err := getConfigValue(cc.Cfg, path); err != nil {
		return sandboxerr.WithSuggestion(err, fmt.Sprintf("configuration path '%s' not found", path))
	}

	// Environment overrides must not leak into the file
	configPath := config.Path(config.ExpandHome(cc.Cfg.Home))
	currentCfg, err := config.Load(configPath)
	if err != nil {
		currentCfg = config.Defaults()
		currentCfg.Home = cc.Cfg.Home
	}

	if err := setConfigValue(currentCfg, path, value); err != nil {
		return err
	}

	if err := config.Save(currentCfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	out(cmd.OutOrStdout(), "Set %s = %s\n", path, value)
	return nil
}

func unknownKey(path string) error {
	return sandboxerr.WithDetails(sandboxerr.ErrUnknownConfigKey, map[string]string{"path": path})
}

func invalidValue(path, value, valid string) error {
	return sandboxerr.WithDetails(sandboxerr.ErrConfigInvalid, map[string]string{
		"path":  path,
		"value": value,
		"valid": valid,
	})
}

// getConfigValue retrieves a value from the config using dot notation.
func getConfigValue(c *config.Config, path string) (string, error) {
	switch path {
	case "home":
		return c.Home, nil
	case "network.rpc":
		return c.Network.RPC, nil
	case "network.rate_limit":
		return strconv.FormatFloat(c.Network.RateLimit, 'f', -1, 64), nil
	case "network.rate_burst":
		return strconv.Itoa(c.Network.RateBurst), nil
	case "network.confirm_timeout_seconds":
		return strconv.Itoa(c.Network.ConfirmTimeoutSeconds), nil
	case "network.confirm_poll_millis":
		return strconv.Itoa(c.Network.ConfirmPollMillis), nil
	case "server.listen":
		return c.Server.Listen, nil
	case "server.refresh_seconds":
		return strconv.Itoa(c.Server.RefreshSeconds), nil
	case "wallet.name":
		return c.Wallet.Name, nil
	case "wallet.account":
		return strconv.Itoa(c.Wallet.Account), nil
	case "wallet.approval":
		return c.Wallet.Approval, nil
	case "wallet.origin":
		return c.Wallet.Origin, nil
	case "output.default_format":
		return c.Output.DefaultFormat, nil
	case "output.verbose":
		return strconv.FormatBool(c.Output.Verbose), nil
	case "output.color":
		return c.Output.Color, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.file":
		return c.Logging.File, nil
	default:
		return "", unknownKey(path)
	}
}

// setConfigValue validates and sets a value using dot notation.
func setConfigValue(c *config.Config, path, value string) error {
	if section, key, ok := strings.Cut(path, "."); ok {
		switch section {
		case "network":
			return setNetworkValue(c, key, value)
		case "server":
			return setServerValue(c, key, value)
		case "wallet":
			return setWalletValue(c, key, value)
		case "output":
			return setOutputValue(c, key, value)
		case "logging":
			return setLoggingValue(c, key, value)
		}
		return unknownKey(path)
	}

	if path == "home" {
		c.Home = value
		return nil
	}
	return unknownKey(path)
}

func setNetworkValue(c *config.Config, key, value string) error {
	path := "network." + key
	switch key {
	case "rpc":
		u := config.SanitizeRPC(value)
		if u == "" {
			return invalidValue(path, value, "an http(s) URL or cluster name")
		}
		c.Network.RPC = u
	case "rate_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return invalidValue(path, value, "a positive number")
		}
		c.Network.RateLimit = f
	case "rate_burst":
		return setPositiveInt(&c.Network.RateBurst, path, value)
	case "confirm_timeout_seconds":
		return setPositiveInt(&c.Network.ConfirmTimeoutSeconds, path, value)
	case "confirm_poll_millis":
		return setPositiveInt(&c.Network.ConfirmPollMillis, path, value)
	default:
		return unknownKey(path)
	}
	return nil
}

func setServerValue(c *config.Config, key, value string) error {
	path := "server." + key
	switch key {
	case "listen":
		c.Server.Listen = strings.TrimSpace(value)
	case "refresh_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return invalidValue(path, value, "0 or more seconds")
		}
		c.Server.RefreshSeconds = n
	default:
		return unknownKey(path)
	}
	return nil
}

func setWalletValue(c *config.Config, key, value string) error {
	path := "wallet." + key
	switch key {
	case "name":
		c.Wallet.Name = strings.TrimSpace(value)
	case "account":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return invalidValue(path, value, "an account index")
		}
		c.Wallet.Account = n
	case "approval":
		switch value {
		case config.ApprovalPrompt, config.ApprovalAuto, config.ApprovalReject:
			c.Wallet.Approval = value
		default:
			return invalidValue(path, value, "prompt, auto, or reject")
		}
	case "origin":
		c.Wallet.Origin = strings.TrimSpace(value)
	default:
		return unknownKey(path)
	}
	return nil
}

func setOutputValue(c *config.Config, key, value string) error {
	path := "output." + key
	switch key {
	case "default_format":
		if value != "text" && value != "json" && value != "auto" {
			return invalidValue(path, value, "text, json, or auto")
		}
		c.Output.DefaultFormat = value
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalidValue(path, value, "true or false")
		}
		c.Output.Verbose = b
	case "color":
		if value != "auto" && value != "always" && value != "never" {
			return invalidValue(path, value, "auto, always, or never")
		}
		c.Output.Color = value
	default:
		return unknownKey(path)
	}
	return nil
}

func setLoggingValue(c *config.Config, key, value string) error {
	path := "logging." + key
	switch key {
	case "level":
		switch value {
		case "off", "error", "info", "debug":
			c.Logging.Level = value
		default:
			return invalidValue(path, value, "off, error, info, or debug")
		}
	case "file":
		c.Logging.File = value
	default:
		return unknownKey(path)
	}
	return nil
}

func setPositiveInt(dst *int, path, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return invalidValue(path, value, "a positive integer")
	}
	*dst = n
	return nil
}

// displayConfigText shows the config in text format.
func displayConfigText(w io.Writer, c *config.Config) error {
	outln(w, "Configuration:")
	outln(w)
	out(w, "  Home: %s\n", c.Home)
	outln(w)
	outln(w, "  Network:")
	out(w, "    rpc: %s\n", c.Network.RPC)
	out(w, "    rate_limit: %s\n", strconv.FormatFloat(c.Network.RateLimit, 'f', -1, 64))
	out(w, "    rate_burst: %d\n", c.Network.RateBurst)
	out(w, "    confirm_timeout_seconds: %d\n", c.Network.ConfirmTimeoutSeconds)
	out(w, "    confirm_poll_millis: %d\n", c.Network.ConfirmPollMillis)
	outln(w)
	outln(w, "  Server:")
	out(w, "    listen: %s\n", c.Server.Listen)
	out(w, "    refresh_seconds: %d\n", c.Server.RefreshSeconds)
	outln(w)
	outln(w, "  Wallet:")
	name := c.Wallet.Name
	if name == "" {
		name = "(not configured)"
	}
	out(w, "    name: %s\n", name)
	out(w, "    account: %d\n", c.Wallet.Account)
	out(w, "    approval: %s\n", c.Wallet.Approval)
	out(w, "    origin: %s\n", c.Wallet.Origin)
	outln(w)
	outln(w, "  Output:")
	out(w, "    default_format: %s\n", c.Output.DefaultFormat)
	out(w, "    verbose: %t\n", c.Output.Verbose)
	out(w, "    color: %s\n", c.Output.Color)
	outln(w)
	outln(w, "  Logging:")
	out(w, "    level: %s\n", c.Logging.Level)
	out(w, "    file: %s\n", c.Logging.File)

	return nil
}

// displayConfigJSON shows the config in JSON format.
func displayConfigJSON(w io.Writer, c *config.Config) error {
	type configJSON struct {
		Version int    `json:"version"`
		Home    string `json:"home"`
		Network struct {
			RPC                   string  `json:"rpc"`
			RateLimit             float64 `json:"rate_limit"`
			RateBurst             int     `json:"rate_burst"`
			ConfirmTimeoutSeconds int     `json:"confirm_timeout_seconds"`
			ConfirmPollMillis     int     `json:"confirm_poll_millis"`
		} `json:"network"`
		Server struct {
			Listen         string `json:"listen"`
			RefreshSeconds int    `json:"refresh_seconds"`
		} `json:"server"`
		Wallet struct {
			Name     string `json:"name"`
			Account  int    `json:"account"`
			Approval string `json:"approval"`
			Origin   string `json:"origin"`
		} `json:"wallet"`
		Output struct {
			DefaultFormat string `json:"default_format"`
			Color         string `json:"color"`
			Verbose       bool   `json:"verbose"`
		} `json:"output"`
		Logging struct {
			Level string `json:"level"`
			File  string `json:"file"`
		} `json:"logging"`
	}

	outCfg := configJSON{Version: c.Version, Home: c.Home}
	outCfg.Network.RPC = c.Network.RPC
	outCfg.Network.RateLimit = c.Network.RateLimit
	outCfg.Network.RateBurst = c.Network.RateBurst
	outCfg.Network.ConfirmTimeoutSeconds = c.Network.ConfirmTimeoutSeconds
	outCfg.Network.ConfirmPollMillis = c.Network.ConfirmPollMillis
	outCfg.Server.Listen = c.Server.Listen
	outCfg.Server.RefreshSeconds = c.Server.RefreshSeconds
	outCfg.Wallet.Name = c.Wallet.Name
	outCfg.Wallet.Account = c.Wallet.Account
	outCfg.Wallet.Approval = c.Wallet.Approval
	outCfg.Wallet.Origin = c.Wallet.Origin
	outCfg.Output.DefaultFormat = c.Output.DefaultFormat
	outCfg.Output.Color = c.Output.Color
	outCfg.Output.Verbose = c.Output.Verbose
	outCfg.Logging.Level = c.Logging.Level
	outCfg.Logging.File = c.Logging.File

	return writeJSON(w, outCfg)
}
