package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondendo89/Prezzibenzina/internal/feed"
)

func TestClient_FetchRecords(t *testing.T) {
	// Municipality column deliberately Latin-1 encoded ("Forlì").
	body := append([]byte("Estrazione del 2024-05-01\nidImpianto;descCarburante;prezzo;isSelf;dtComu\n"),
		append([]byte{'1', '2', '3', '4', ';', 'B', 'e', 'n', 'z', 'i', 'n', 'a', ' ', 'F', 'o', 'r', 'l', 0xEC, ';'},
			[]byte("1,879;1;2024-05-01\n")...)...)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client := feed.NewClient(feed.ClientConfig{URL: server.URL})

	records, err := client.FetchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1234", records[0].StationID)
	assert.Equal(t, "Benzina Forlì", records[0].FuelType)
	require.NotNil(t, records[0].Price)
	assert.InDelta(t, 1.879, *records[0].Price, 1e-9)
}

func TestClient_FetchRecords_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := feed.NewClient(feed.ClientConfig{URL: server.URL})

	_, err := client.FetchRecords(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrFetchFailed)
}
