//go:build !windows

package ncover

func lookupInstallDir() (string, error) {
	return "", errLookupUnsupported
}
