package intake

import (
	"fmt"
	"path/filepath"
	"strings"

	"wrapped/internal/config"
	"wrapped/internal/source"
)

// StdinPath selects standard input as a CSV source.
const StdinPath = config.StdinPath

// FromAppConfig converts the application config to an intake config.
// An empty source type is inferred from the path extension.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.SourceType)
	if t == "" {
		t = TypeFromPath(appConfig.SourcePath)
	}

	cfg := Config{
		Type:  t,
		Path:  appConfig.SourcePath,
		Sheet: appConfig.XLSXSheet,
		Table: appConfig.SQLiteTable,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}
	return cfg, cfg.Validate()
}

// TypeFromPath guesses a source type from a file extension.
func TypeFromPath(path string) Type {
	if path == StdinPath {
		return CSV
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return CSV
	case ".xlsx", ".xlsm", ".xltx":
		return XLSX
	case ".db", ".sqlite", ".sqlite3":
		return SQLite
	}
	return ""
}

// Validate validates the intake configuration
func (c Config) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("%w: cannot infer source type from %q, set one of %v", source.ErrUnsupportedType, c.Path, GetTypeStrings())
	}
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: %s", source.ErrUnsupportedType, c.Type)
	}

	switch c.Type {
	case CSV, XLSX, SQLite:
		if c.Path == "" {
			return fmt.Errorf("source path is required for %s source", c.Type)
		}
		if c.Type == SQLite && c.Table == "" {
			return fmt.Errorf("table name is required for sqlite source")
		}
	case Sheets:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets source")
		}
	case Memory:
		// rows may legitimately be empty
	}
	return nil
}

// GetTypes returns all valid source types
func GetTypes() []Type {
	return []Type{CSV, XLSX, Sheets, SQLite, Memory}
}

// GetTypeStrings returns all valid source type strings
func GetTypeStrings() []string {
	types := GetTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
