package usecase

import "strings"

// ExpandHomeDirPublic expands ~, $HOME and ${HOME} prefixes.
func ExpandHomeDirPublic(path, homeDir string) string {
	return expandHomeDir(path, homeDir)
}

func expandHomeDir(path, homeDir string) string {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return clean
	}
	home := strings.TrimRight(homeDir, "/")
	for _, prefix := range []string{"~", "$HOME", "${HOME}"} {
		if clean == prefix {
			return homeDir
		}
		if strings.HasPrefix(clean, prefix+"/") {
			return home + clean[len(prefix):]
		}
	}
	return clean
}

func contractHomeDir(path, homeDir string, sep byte) string {
	if path == "" || homeDir == "" {
		return path
	}
	home := strings.TrimRight(homeDir, string(sep))
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(sep)) {
		return "~" + path[len(home):]
	}
	return path
}
