//go:build windows

package ncover

import (
	"golang.org/x/sys/windows/registry"
)

const (
	installKey   = `SOFTWARE\Gnoso\NCover`
	installValue = "InstallDir"
)

func lookupInstallDir() (string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, installKey, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer key.Close()

	dir, _, err := key.GetStringValue(installValue)
	if err != nil {
		return "", err
	}
	return dir, nil
}
