package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quiz-master/internal/middleware"
	"github.com/yourusername/quiz-master/internal/service"
)

var exportHeaders = []string{"Username", "Full Name", "Email", "Score", "Total Questions", "Percentage", "Submitted At"}

// ExportAttempts выгружает попытки викторины в CSV или Excel
// GET /admin/quizzes/:id/export?format=csv|xlsx
func (h *AdminHandler) ExportAttempts(c *gin.Context) {
	quizID := middleware.UintParam(c, idKey)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		middleware.AbortWithError(c, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	_, rows, err := h.statsService.QuizAttempts(c.Request.Context(), quizID)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	loc := h.quizService.Location()
	filename := fmt.Sprintf("quiz_%d_attempts_%s", quizID, h.quizService.Now().In(loc).Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, rows, loc, filename)
	default:
		h.exportCSV(c, rows, loc, filename)
	}
}

// exportCSV пишет строки через encoding/csv, который экранирует запятые и кавычки
func (h *AdminHandler) exportCSV(c *gin.Context, rows []service.AttemptRow, loc *time.Location, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write(exportHeaders)
	for _, r := range rows {
		_ = writer.Write([]string{
			sanitizeForExcel(r.Username),
			sanitizeForExcel(r.FullName),
			sanitizeForExcel(r.Email),
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Total),
			strconv.FormatFloat(r.Percentage, 'f', 1, 64),
			r.SubmittedAt.In(loc).Format(displayLayout),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.log.Error("CSV export failed", "file", filename, "error", err)
	}
}

// exportXLSX пишет строки через StreamWriter, не держа весь лист в памяти
func (h *AdminHandler) exportXLSX(c *gin.Context, rows []service.AttemptRow, loc *time.Location, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Attempts"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		h.log.Error("Failed to rename sheet", "error", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		h.log.Error("Failed to create StreamWriter", "error", err)
		middleware.AbortWithError(c, http.StatusInternalServerError, "Failed to create Excel file")
		return
	}

	headers := make([]interface{}, len(exportHeaders))
	for i, name := range exportHeaders {
		headers[i] = name
	}
	if err := sw.SetRow("A1", headers); err != nil {
		h.log.Error("Failed to write headers", "error", err)
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			sanitizeForExcel(r.Username),
			sanitizeForExcel(r.FullName),
			sanitizeForExcel(r.Email),
			r.Score,
			r.Total,
			r.Percentage,
			r.SubmittedAt.In(loc).Format(displayLayout),
		}
		if err := sw.SetRow(cell, row); err != nil {
			h.log.Error("Failed to write row", "row", i+2, "error", err)
		}
	}

	if err := sw.Flush(); err != nil {
		h.log.Error("StreamWriter flush failed", "error", err)
		middleware.AbortWithError(c, http.StatusInternalServerError, "Failed to create Excel file")
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		h.log.Error("Failed to write Excel response", "error", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
