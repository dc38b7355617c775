package diagfmt

import (
	"os"
	"path/filepath"
)

// autoPathLimit задаёт порог, после которого длинный абсолютный путь
// сжимается до имени файла.
const autoPathLimit = 40

// formatPath приводит путь к выбранному режиму отображения.
func formatPath(path string, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	case PathModeRelative:
		if cwd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(cwd, path); err == nil {
				return rel
			}
		}
		return path
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAuto:
		if filepath.IsAbs(path) && len(path) > autoPathLimit {
			return filepath.Base(path)
		}
		return path
	default:
		return path
	}
}
