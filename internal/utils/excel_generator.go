package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"weatherlog/internal/models"
)

const (
	ReadingsSheet = "Weather"
	InfoSheet     = "Info"

	TimestampLayout = "2006-01-02 15:04:05"

	// В ячейке полная точность, формат показывает миллисекунды
	timestampNumFmt = "yyyy-mm-dd hh:mm:ss.000"
)

// ReadingHeaders порядок колонок любого экспорта.
var ReadingHeaders = []string{
	"Temperature",
	"Wind Speed",
	"Wind Direction",
	"Pressure",
	"Precipitation Rain",
	"Precipitation Snow",
	"Timestamp",
}

// ExportInfo описывает один экспорт для листа Info.
type ExportInfo struct {
	ID          string
	GeneratedAt time.Time
}

// ReadingRow возвращает ячейки показания в порядке ReadingHeaders.
// Время остается time.Time, excelize пишет его как дату.
func ReadingRow(r models.Reading) []interface{} {
	return []interface{}{
		r.Temperature,
		r.WindSpeed,
		r.WindDirection.String(),
		r.Pressure,
		r.PrecipitationRain,
		r.PrecipitationSnow,
		r.Timestamp.UTC(),
	}
}

// WriteExcel пишет показания в xlsx: лист данных с заголовком и строкой
// на показание, плюс лист Info.
func WriteExcel(w io.Writer, records []models.Reading, info ExportInfo) error {
	f := excelize.NewFile()
	defer f.Close()

	// Переименовываем лист по умолчанию, данные на первой вкладке
	if err := f.SetSheetName("Sheet1", ReadingsSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(ReadingHeaders))
	for i, h := range ReadingHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ReadingsSheet, "A1", &header); err != nil {
		return err
	}

	for rowIdx, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2) // строка 1 заголовок
		if err != nil {
			return err
		}
		row := ReadingRow(record)
		if err := f.SetSheetRow(ReadingsSheet, cell, &row); err != nil {
			return err
		}
	}

	if len(records) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(ReadingsSheet, "A2", fmt.Sprintf("B%d", len(records)+1), style); err != nil {
			return err
		}
		if err := f.SetCellStyle(ReadingsSheet, "D2", fmt.Sprintf("F%d", len(records)+1), style); err != nil {
			return err
		}

		// Дата и время с миллисекундами
		numFmt := timestampNumFmt
		dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(ReadingsSheet, "G2", fmt.Sprintf("G%d", len(records)+1), dateStyle); err != nil {
			return err
		}
	}

	for i := 1; i <= len(ReadingHeaders); i++ {
		colName, _ := excelize.ColumnNumberToName(i)
		if err := f.SetColWidth(ReadingsSheet, colName, colName, 20); err != nil {
			return err
		}
	}

	if len(records) > 1 {
		if err := createChart(f, len(records)); err != nil {
			return err
		}
	}

	if err := createInfoSheet(f, records, info); err != nil {
		return err
	}

	index, err := f.GetSheetIndex(ReadingsSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	_, err = f.WriteTo(w)
	return err
}

func createChart(f *excelize.File, rows int) error {
	last := rows + 1
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       "Temperature",
				Categories: fmt.Sprintf("%s!$G$2:$G$%d", ReadingsSheet, last),
				Values:     fmt.Sprintf("%s!$A$2:$A$%d", ReadingsSheet, last),
			},
		},
		Title: []excelize.RichTextRun{
			{
				Text: "Temperature Over Time",
			},
		},
		XAxis: excelize.ChartAxis{
			MajorGridLines: true,
			ReverseOrder:   true, // новые строки сверху
		},
		YAxis: excelize.ChartAxis{
			MajorGridLines: true,
		},
		Dimension: excelize.ChartDimension{
			Width:  600,
			Height: 400,
		},
	}

	return f.AddChart(ReadingsSheet, "I2", chart)
}

func createInfoSheet(f *excelize.File, records []models.Reading, info ExportInfo) error {
	if _, err := f.NewSheet(InfoSheet); err != nil {
		return err
	}

	metadata := [][2]interface{}{
		{"Export ID", info.ID},
		{"Report Generated", info.GeneratedAt.UTC().Format(TimestampLayout)},
		{"Total Records", len(records)},
	}
	if len(records) > 0 {
		newest := records[0].Timestamp.UTC().Format(TimestampLayout)
		oldest := records[len(records)-1].Timestamp.UTC().Format(TimestampLayout)
		minTemp, maxTemp := temperatureRange(records)
		metadata = append(metadata,
			[2]interface{}{"Time Range", fmt.Sprintf("%s to %s", oldest, newest)},
			[2]interface{}{"Temperature Range", fmt.Sprintf("%.2f°C - %.2f°C", minTemp, maxTemp)},
		)
	}

	for i, kv := range metadata {
		row := []interface{}{kv[0], kv[1]}
		if err := f.SetSheetRow(InfoSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(InfoSheet, "A", "B", 28)
}

func temperatureRange(records []models.Reading) (float64, float64) {
	if len(records) == 0 {
		return 0, 0
	}
	min, max := records[0].Temperature, records[0].Temperature
	for _, r := range records {
		if r.Temperature < min {
			min = r.Temperature
		}
		if r.Temperature > max {
			max = r.Temperature
		}
	}
	return min, max
}

// WriteCSV пишет показания в CSV с заголовком.
func WriteCSV(w io.Writer, records []models.Reading) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ReadingHeaders); err != nil {
		return err
	}

	for _, record := range records {
		row := []string{
			formatFloat(record.Temperature),
			formatFloat(record.WindSpeed),
			record.WindDirection.String(),
			formatFloat(record.Pressure),
			formatFloat(record.PrecipitationRain),
			formatFloat(record.PrecipitationSnow),
			record.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
