package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/startbuilds/excel-mysql-exporter/internal/export/entity"
	"github.com/startbuilds/excel-mysql-exporter/internal/export/usecase"
)

// Open opens the workbook at path, picking the reader from the file extension.
func Open(path string) (usecase.Workbook, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return OpenExcel(path)
	case ".csv":
		return OpenCSV(path)
	default:
		return nil, entity.NewSourceNotFound("", fmt.Errorf("unsupported file type %q", ext))
	}
}
