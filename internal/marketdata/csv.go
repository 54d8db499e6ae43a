package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/alphalab/internal/models"
)

var csvHeader = []string{"date", "open", "high", "low", "close", "volume"}

// CSVProvider reads daily bars from per-symbol CSV files. Each symbol lives
// in <dir>/<symbol>.csv with a date,open,high,low,close,volume header.
type CSVProvider struct {
	dir    string
	logger *logrus.Logger
}

// NewCSVProvider creates a filesystem-backed provider.
func NewCSVProvider(dir string, logger *logrus.Logger) *CSVProvider {
	return &CSVProvider{dir: dir, logger: logger}
}

// Name returns the provider identifier.
func (p *CSVProvider) Name() string {
	return "csv"
}

// FetchOHLCV reads one symbol's file and returns the bars inside [start, end].
func (p *CSVProvider) FetchOHLCV(_ context.Context, symbol string, start, end time.Time) (*models.PriceSeries, error) {
	path := filepath.Join(p.dir, symbol+".csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewDataFetchError("no data file for symbol %s at %s", symbol, path)
		}
		return nil, models.WrapError(models.KindDataFetch, err, "failed to open %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, models.WrapError(models.KindDataValidation, err, "failed to read header of %s", path)
	}
	if err := checkHeader(header, path); err != nil {
		return nil, err
	}

	series := &models.PriceSeries{Symbol: symbol}
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.WrapError(models.KindDataValidation, err, "failed to read %s", path)
		}
		row++

		bar, err := parseBar(record, path, row)
		if err != nil {
			return nil, err
		}
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		series.Bars = append(series.Bars, bar)
	}

	if len(series.Bars) == 0 {
		return nil, models.NewDataFetchError("file %s has no bars in %s..%s",
			path, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	p.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"bars":   len(series.Bars),
	}).Debug("Loaded CSV series")
	return series, nil
}

func checkHeader(header []string, path string) error {
	if len(header) != len(csvHeader) {
		return models.NewDataValidationError("file %s has %d header columns, want %d", path, len(header), len(csvHeader))
	}
	for i, want := range csvHeader {
		if strings.ToLower(strings.TrimSpace(header[i])) != want {
			return models.NewDataValidationError("file %s header column %d is %q, want %q", path, i, header[i], want)
		}
	}
	return nil
}

func parseBar(record []string, path string, row int) (models.Bar, error) {
	if len(record) != len(csvHeader) {
		return models.Bar{}, models.NewDataValidationError("file %s row %d has %d columns, want %d", path, row, len(record), len(csvHeader))
	}

	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(record[0]), time.UTC)
	if err != nil {
		return models.Bar{}, models.NewDataValidationError("file %s row %d has invalid date %q", path, row, record[0])
	}

	values := make([]float64, 5)
	for i := 0; i < 5; i++ {
		value, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
		if err != nil {
			return models.Bar{}, models.NewDataValidationError(
				"file %s row %d has invalid %s %q", path, row, csvHeader[i+1], record[i+1])
		}
		values[i] = value
	}

	return models.Bar{
		Date:   date,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

// WriteCSV writes a series in the provider's file format, used to export
// fetched data for offline reruns.
func WriteCSV(series *models.PriceSeries, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.WrapError(models.KindDataFetch, err, "failed to create %s", dir)
	}
	path := filepath.Join(dir, series.Symbol+".csv")

	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	b.WriteString("\n")
	for _, bar := range series.Bars {
		fmt.Fprintf(&b, "%s,%g,%g,%g,%g,%g\n",
			bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", models.WrapError(models.KindDataFetch, err, "failed to write %s", path)
	}
	return path, nil
}
