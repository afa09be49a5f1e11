package blueprint

import (
	"fmt"
)

// PackageManager is the project's package manager choice
type PackageManager string

const (
	NPM  PackageManager = "npm"
	PNPM PackageManager = "pnpm"
	Yarn PackageManager = "yarn"
	Bun  PackageManager = "bun"
)

// ParsePackageManager validates a package-manager name
func ParsePackageManager(name string) (PackageManager, error) {
	switch PackageManager(name) {
	case NPM, PNPM, Yarn, Bun:
		return PackageManager(name), nil
	case "":
		return NPM, nil
	default:
		return "", fmt.Errorf("unknown package manager %q", name)
	}
}

// Command returns the binary to invoke
func (pm PackageManager) Command() string {
	return string(pm)
}

// InstallArgs builds the argv for installing packages, split between
// runtime and dev dependencies
func (pm PackageManager) InstallArgs(packages []string, dev bool) []string {
	var args []string
	switch pm {
	case Yarn:
		args = []string{"add"}
		if dev {
			args = append(args, "--dev")
		}
	case Bun:
		args = []string{"add"}
		if dev {
			args = append(args, "--development")
		}
	case PNPM:
		args = []string{"add"}
		if dev {
			args = append(args, "--save-dev")
		}
	default:
		args = []string{"install"}
		if dev {
			args = append(args, "--save-dev")
		}
	}
	return append(args, packages...)
}
