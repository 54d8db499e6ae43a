package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/alphalab/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

const testCSV = `date,open,high,low,close,volume
2024-01-01,100,101,99,100.5,1000
2024-01-02,100.5,102,100,101.5,1100
2024-01-03,101.5,103,101,102.5,1200
2024-01-04,102.5,104,102,103.5,1300
`

func writeTestCSV(t *testing.T, symbol, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644))
	return dir
}

func TestCSVProviderReadsAndFilters(t *testing.T) {
	dir := writeTestCSV(t, "ES", testCSV)
	provider := NewCSVProvider(dir, testLogger())

	series, err := provider.FetchOHLCV(context.Background(), "ES", day(2024, 1, 2), day(2024, 1, 3))
	require.NoError(t, err)
	require.NoError(t, series.Validate())

	require.Equal(t, 2, series.Len())
	assert.Equal(t, []float64{101.5, 102.5}, series.Closes())
	assert.Equal(t, day(2024, 1, 2), series.Bars[0].Date)
}

func TestCSVProviderMissingFile(t *testing.T) {
	provider := NewCSVProvider(t.TempDir(), testLogger())
	_, err := provider.FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 5))
	require.Error(t, err)
	assert.Equal(t, models.KindDataFetch, models.KindOf(err))
}

func TestCSVProviderEmptyRange(t *testing.T) {
	dir := writeTestCSV(t, "ES", testCSV)
	provider := NewCSVProvider(dir, testLogger())
	_, err := provider.FetchOHLCV(context.Background(), "ES", day(2025, 1, 1), day(2025, 2, 1))
	require.Error(t, err)
	assert.Equal(t, models.KindDataFetch, models.KindOf(err))
}

func TestCSVProviderRejectsBadHeader(t *testing.T) {
	dir := writeTestCSV(t, "ES", "timestamp,o,h,l,c,v\n2024-01-01,1,1,1,1,1\n")
	provider := NewCSVProvider(dir, testLogger())
	_, err := provider.FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 5))
	require.Error(t, err)
	assert.Equal(t, models.KindDataValidation, models.KindOf(err))
}

func TestCSVProviderRejectsBadValues(t *testing.T) {
	dir := writeTestCSV(t, "ES", "date,open,high,low,close,volume\n2024-01-01,abc,1,1,1,1\n")
	provider := NewCSVProvider(dir, testLogger())
	_, err := provider.FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 5))
	require.Error(t, err)
	assert.Equal(t, models.KindDataValidation, models.KindOf(err))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	dir := writeTestCSV(t, "ES", testCSV)
	provider := NewCSVProvider(dir, testLogger())

	series, err := provider.FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 4))
	require.NoError(t, err)

	outDir := t.TempDir()
	path, err := WriteCSV(series, outDir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	reread, err := NewCSVProvider(outDir, testLogger()).FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 4))
	require.NoError(t, err)
	assert.Equal(t, series.Closes(), reread.Closes())
}

// countingProvider tracks upstream fetches for the cache test.
type countingProvider struct {
	calls int64
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) FetchOHLCV(_ context.Context, symbol string, start, _ time.Time) (*models.PriceSeries, error) {
	atomic.AddInt64(&p.calls, 1)
	return &models.PriceSeries{Symbol: symbol, Bars: []models.Bar{
		{Date: start, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}}, nil
}

func TestCachedProviderMemoizes(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := cached.FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 5))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&inner.calls))

	// different range misses
	_, err := cached.FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 6))
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&inner.calls))
}

func TestEODHDProviderParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/ES")
		assert.Equal(t, "secret", r.URL.Query().Get("api_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2024-01-01","open":100,"high":101,"low":99,"close":100,"adjusted_close":50,"volume":1000},
			{"date":"2024-01-02","open":100,"high":102,"low":100,"close":102,"adjusted_close":51,"volume":1100}
		]`))
	}))
	defer server.Close()

	provider := NewEODHDProvider("secret", testLogger())
	provider.baseURL = server.URL

	series, err := provider.FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 2))
	require.NoError(t, err)
	require.NoError(t, series.Validate())

	// whole bar scaled by adjusted_close/close
	require.Equal(t, 2, series.Len())
	assert.InDelta(t, 50.0, series.Bars[0].Close, 1e-12)
	assert.InDelta(t, 50.5, series.Bars[0].High, 1e-12)
	assert.InDelta(t, 51.0, series.Bars[1].Close, 1e-12)
}

func TestEODHDProviderEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	provider := NewEODHDProvider("secret", testLogger())
	provider.baseURL = server.URL

	_, err := provider.FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 2))
	require.Error(t, err)
	assert.Equal(t, models.KindDataFetch, models.KindOf(err))
}

func TestEODHDProviderHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := NewEODHDProvider("bad", testLogger())
	provider.baseURL = server.URL

	_, err := provider.FetchOHLCV(context.Background(), "ES", day(2024, 1, 1), day(2024, 1, 2))
	require.Error(t, err)
	assert.Equal(t, models.KindDataFetch, models.KindOf(err))
}

func TestFetchAllCollectsEverySymbol(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ES.csv"), []byte(testCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CL.csv"), []byte(testCSV), 0o644))
	provider := NewCSVProvider(dir, testLogger())

	data, err := FetchAll(context.Background(), provider, []string{"ES", "CL"}, day(2024, 1, 1), day(2024, 1, 4))
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, "ES", data["ES"].Symbol)
	assert.Equal(t, 4, data["CL"].Len())
}

func TestFetchAllFailsOnAnySymbol(t *testing.T) {
	dir := writeTestCSV(t, "ES", testCSV)
	provider := NewCSVProvider(dir, testLogger())

	_, err := FetchAll(context.Background(), provider, []string{"ES", "MISSING"}, day(2024, 1, 1), day(2024, 1, 4))
	require.Error(t, err)
	assert.Equal(t, models.KindDataFetch, models.KindOf(err))
}
