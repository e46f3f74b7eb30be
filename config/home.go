package config

import (
	"os"
	"path"

	"github.com/pkg/errors"
)

func HomeDirExists(path string) (bool, error) {
	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	if !stat.IsDir() {
		return false, errors.New("home dir path exists, but is a file")
	}

	return true, nil
}

// IsInitialized reports whether homePath holds a config file. A home
// directory that exists without one can still be initialized.
func IsInitialized(homePath string) (bool, error) {
	exists, err := HomeDirExists(homePath)
	if err != nil || !exists {
		return false, err
	}
	_, err = os.Stat(path.Join(homePath, ConfigFilename))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "error checking config file")
	}
	return true, nil
}

func EnsureHomeDir(homePath string) error {
	ok, err := IsInitialized(homePath)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("home directory is not initialized - try running gwired init")
	}
	return nil
}

func InitHomeDir(homePath string) error {
	if err := os.MkdirAll(homePath, 0700); err != nil {
		return errors.Wrap(err, "error creating home directory")
	}
	if err := InitDBDir(homePath); err != nil {
		return errors.Wrap(err, "error creating db directory")
	}
	return WriteDefaultConfigFile(homePath)
}
