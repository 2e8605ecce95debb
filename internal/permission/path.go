package permission

import "path/filepath"

// ResolveWorkspacePath resolves path against workDir and reports
// whether the result stays within workDir. All file tools (C5) and the
// shell tools' dangerous-path checks use this before touching the
// filesystem, per spec §4.5 "rejected if they resolve outside W".
func ResolveWorkspacePath(workDir, path string) (resolved string, withinWorkspace bool) {
	if filepath.IsAbs(path) {
		resolved = filepath.Clean(path)
	} else {
		resolved = filepath.Clean(filepath.Join(workDir, path))
	}
	return resolved, IsWithinDir(resolved, workDir)
}

// IsWithinDir reports whether path is dir itself or nested under it.
func IsWithinDir(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) || rel == ".."
}
