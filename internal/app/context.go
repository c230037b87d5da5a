package app

import (
	"fmt"

	"gridpm/internal/config"
)

// ProfileSource names where the active profile came from.
type ProfileSource string

const (
	SourceFile      ProfileSource = "file"
	SourceWorkspace ProfileSource = "workspace"
	SourceBuiltin   ProfileSource = "builtin"
)

// ResolveProfile picks the active profile: an explicit --config file wins,
// then gridpm.yml in the workspace, then the named built-in profile.
func ResolveProfile(workspace, configPath, builtinName string) (*config.Profile, ProfileSource, error) {
	if configPath != "" {
		p, err := config.FromFile(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("load %s: %w", configPath, err)
		}
		return p, SourceFile, nil
	}
	p, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", config.Path(workspace), err)
	}
	if p != nil {
		return p, SourceWorkspace, nil
	}
	if builtinName == "" {
		builtinName = config.ProfileDetailed
	}
	p, err = config.Builtin(builtinName)
	if err != nil {
		return nil, "", err
	}
	return p, SourceBuiltin, nil
}
