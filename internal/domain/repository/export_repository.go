package repository

import (
	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
)

// ExportRepository define a exportação do relatório de provisionamento.
type ExportRepository interface {
	ExportToCSV(report *entity.ProvisionReport, filename, outputDir string) (string, error)
	ExportToJSON(report *entity.ProvisionReport, filename, outputDir string) (string, error)
	ExportToPDF(report *entity.ProvisionReport, filename, outputDir string) (string, error)
}
