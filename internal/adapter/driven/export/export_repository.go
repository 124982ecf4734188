package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/entity"
	"github.com/diillson/aws-lambda-monitoring-go/internal/domain/repository"
	"github.com/jung-kurt/gofpdf"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// generateFilename monta o nome do arquivo de saída com timestamp.
func generateFilename(base, outputDir, extension string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("report name cannot be empty")
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return "", fmt.Errorf("error creating output directory: %w", err)
		}
	}
	timestamp := time.Now().Format("20060102_1504")
	return filepath.Join(outputDir, fmt.Sprintf("%s_%s.%s", base, timestamp, extension)), nil
}

// ExportToCSV grava o relatório de provisionamento em CSV.
func (r *ExportRepositoryImpl) ExportToCSV(report *entity.ProvisionReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{"Phase", "Kind", "Name", "ARN", "Action", "Detail"}
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}

	for _, o := range report.Outcomes {
		record := []string{o.Phase, o.Kind, o.Name, o.Arn, o.Action, o.Detail}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("error writing CSV record: %w", err)
		}
	}

	return filepath.Abs(outputFilename)
}

// ExportToJSON grava o relatório de provisionamento em JSON.
func (r *ExportRepositoryImpl) ExportToJSON(report *entity.ProvisionReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// ExportToPDF grava o relatório de provisionamento em PDF.
func (r *ExportRepositoryImpl) ExportToPDF(report *entity.ProvisionReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Lambda Monitoring Provision Report - %s", report.Phase))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Profile: %s | Account: %s | Region: %s | Generated: %s",
		report.Profile, report.AccountID, report.Region,
		report.GeneratedAt.Format("2006-01-02 15:04:05")))
	pdf.Ln(6)
	if report.DryRun {
		pdf.Cell(0, 6, "DRY RUN - no resources were modified")
		pdf.Ln(6)
	}
	pdf.Ln(2)

	colWidths := []float64{25, 40, 55, 110, 25}
	headers := []string{"Phase", "Kind", "Name", "ARN", "Action"}

	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(50, 50, 50)
	pdf.SetFont("Arial", "", 8)
	fill := false
	for _, o := range report.Outcomes {
		pdf.SetFillColor(240, 240, 240)
		cells := []string{o.Phase, o.Kind, o.Name, o.Arn, o.Action}
		for i, c := range cells {
			pdf.CellFormat(colWidths[i], 6, c, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}

	if len(report.Errors) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Errors")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		for _, e := range report.Errors {
			pdf.MultiCell(0, 5, e, "", "L", false)
		}
	}

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}
