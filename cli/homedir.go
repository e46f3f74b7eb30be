package cli

import (
	"graphwire/config"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func GetHomeDir(cmd *cobra.Command) string {
	homeDirUnexp, err := cmd.Flags().GetString(FlagHome)
	if err != nil {
		panic(err)
	}
	return config.ExpandHomePath(homeDirUnexp)
}

// InitHomeDir writes a default config and db directory into the home
// directory named by the home flag, refusing to overwrite an existing
// config.
func InitHomeDir(cmd *cobra.Command) (string, error) {
	homeDir := GetHomeDir(cmd)
	initialized, err := config.IsInitialized(homeDir)
	if err != nil {
		return "", err
	}
	if initialized {
		return "", errors.Errorf("home directory %s is already initialized", homeDir)
	}
	if err := config.InitHomeDir(homeDir); err != nil {
		return "", err
	}
	return homeDir, nil
}
