package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and edit configuration",
	Long: `Without a subcommand, lists every configuration key with its value.
Values come from the config file; unset keys show their default.
Environment variables (GLA_SECTION_KEY, e.g. GLA_RETRIEVAL_K) override the file.`,
	Args: cobra.NoArgs,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Validates and stores a value in the config file.
For credentials (llm.api_key, embedding.api_key, github.token) the value may
be omitted and is then read from the terminal without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Remove a value so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured AI providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}

	for _, key := range settings.Keys() {
		value, set, err := settings.Get(key)
		if err != nil {
			return err
		}
		if settings.IsSecret(key) {
			value = maskSecret(value)
		}
		marker := ""
		if !set {
			marker = "  (default)"
		}
		cmd.Printf("%-32s = %s%s\n", key, value, marker)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}

	value, _, err := settings.Get(args[0])
	if err != nil {
		return err
	}
	if settings.IsSecret(args[0]) {
		value = maskSecret(value)
	}
	cmd.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case settings.IsSecret(key):
		cmd.Printf("%s: ", key)
		value = readPassword()
		cmd.Println()
	default:
		return fmt.Errorf("missing value for %s", key)
	}

	if err := settings.Set(key, value); err != nil {
		return err
	}
	if settings.IsSecret(key) {
		value = maskSecret(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}

	if err := settings.Unset(args[0]); err != nil {
		return err
	}
	value, _, err := settings.Get(args[0])
	if err != nil {
		return err
	}
	if settings.IsSecret(args[0]) {
		value = maskSecret(value)
	}
	cmd.Printf("%s reset to default (%s)\n", args[0], value)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if factory == nil || factory.ConfigFile == nil {
		return ErrNotConfigured
	}
	path, err := factory.ConfigFile(configPath)
	if err != nil {
		return err
	}
	cmd.Println(path)
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if factory == nil || factory.Check == nil {
		return ErrNotConfigured
	}

	statuses, err := factory.Check(cmd.Context(), configPath)
	if err != nil {
		return err
	}

	var failed []error
	for _, s := range statuses {
		label := fmt.Sprintf("%-10s %s (%s)", s.Name, s.Provider, s.Model)
		if s.Err != nil {
			cmd.Printf("%s: FAILED: %v\n", label, s.Err)
			failed = append(failed, fmt.Errorf("%s: %w", s.Name, s.Err))
			continue
		}
		cmd.Printf("%s: ok\n", label)
	}

	if len(failed) > 0 {
		return fmt.Errorf("provider check failed: %w", errors.Join(failed...))
	}
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// maskSecret hides all but the edges of a credential.
func maskSecret(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "..." + key[len(key)-4:]
	}
}
