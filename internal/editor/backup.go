package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// backup writes a timestamped copy of resolved's current contents to
// .code_agent_backups/<filename>.<YYYYMMDD_HHMMSS>.backup before any
// mutation (spec §4.5). Returns "" with no error if the file does not
// yet exist (nothing to back up).
func (e *Editor) backup(resolved string) (string, error) {
	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("❌ failed to read for backup: %v", err)
	}

	if err := os.MkdirAll(e.backupDir(), 0755); err != nil {
		return "", fmt.Errorf("❌ failed to create backups directory: %v", err)
	}

	name := fmt.Sprintf("%s.%s.backup", filepath.Base(resolved), time.Now().Format("20060102_150405"))
	backupPath := filepath.Join(e.backupDir(), name)

	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("❌ failed to write backup: %v", err)
	}

	return backupPath, nil
}
