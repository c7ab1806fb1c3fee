package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooFetcher_ParsesChart(t *testing.T) {
	// 2012-12-07 and 2012-12-10, 10:00 Sydney (gmtoffset +11h).
	ts1 := time.Date(2012, 12, 6, 23, 0, 0, 0, time.UTC).Unix()
	ts2 := time.Date(2012, 12, 9, 23, 0, 0, 0, time.UTC).Unix()
	ts3 := ts2 + 86400
	body := fmt.Sprintf(`{"chart":{"result":[{"meta":{"gmtoffset":39600},
		"timestamp":[%d,%d,%d],
		"indicators":{"quote":[{"open":[10,11,null],"high":[10.5,11.5,null],"low":[9.5,10.5,null],"close":[10.2,11.1,null],"volume":[1000,2000,null]}],
		"adjclose":[{"adjclose":[9.2,10.1,null]}]}}],"error":null}}`, ts1, ts2, ts3)

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	rows, err := f.FetchDailyHistory(context.Background(), "SPX", day("2012-12-01"), day("2012-12-31"))
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "2012-12-07", rows[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2012-12-10", rows[1].Date.Format("2006-01-02"))
	assert.Equal(t, 10.2, rows[0].Close)
	assert.Equal(t, 9.2, rows[0].AdjClose)
	assert.Equal(t, 2000.0, rows[1].Volume)
}

func TestYahooFetcher_MissingAdjCloseFallsBackToClose(t *testing.T) {
	ts1 := time.Date(2012, 12, 6, 23, 0, 0, 0, time.UTC).Unix()
	ts2 := time.Date(2012, 12, 9, 23, 0, 0, 0, time.UTC).Unix()
	body := fmt.Sprintf(`{"chart":{"result":[{"meta":{"gmtoffset":39600},
		"timestamp":[%d,%d],
		"indicators":{"quote":[{"open":[10,11],"high":[10.5,11.5],"low":[9.5,10.5],"close":[10.2,11.1],"volume":[1000,2000]}],
		"adjclose":[{"adjclose":[9.2,null]}]}}],"error":null}}`, ts1, ts2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	rows, err := f.FetchDailyHistory(context.Background(), "ABP.AX", day("2012-12-01"), day("2012-12-31"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 9.2, rows[0].AdjClose)
	assert.Equal(t, 11.1, rows[1].AdjClose)
}

func TestYahooFetcher_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	_, err := f.FetchDailyHistory(context.Background(), "NOPE", day("2012-12-01"), day("2012-12-31"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestEODHDFetcher_ParsesBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/ABP.AX", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("api_token"))
		assert.Equal(t, "2012-12-01", q.Get("from"))
		assert.Equal(t, "2012-12-31", q.Get("to"))
		fmt.Fprint(w, `[
			{"date":"2012-12-07","open":2.1,"high":2.2,"low":2.0,"close":2.15,"adjusted_close":1.9,"volume":120000},
			{"date":"2012-12-10","open":"2.15","high":"2.3","low":"2.1","close":"2.25","adjusted_close":"2.0","volume":"N/A"}
		]`)
	}))
	defer srv.Close()

	f := NewEODHDFetcher(srv.URL, "secret", "", 100, time.Second)
	rows, err := f.FetchDailyHistory(context.Background(), "ABP.AX", day("2012-12-01"), day("2012-12-31"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1.9, rows[0].AdjClose)
	assert.Equal(t, 120000.0, rows[0].Volume)
	assert.Equal(t, 2.25, rows[1].Close)
	assert.Equal(t, 0.0, rows[1].Volume)
}

func TestEODHDFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	f := NewEODHDFetcher(srv.URL, "k", "", 100, time.Second)
	_, err := f.FetchDailyHistory(context.Background(), "AAPL", day("2012-12-01"), day("2012-12-31"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 402")
}
