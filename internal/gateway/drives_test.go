package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListDrives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sites/site-1/drives", r.URL.Path)
		w.Write([]byte(`{"value":[{"id":"d1","name":"DriveA"},{"id":"d2","name":"DriveB"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	drives, err := c.ListDrives(context.Background(), "site-1")
	require.NoError(t, err)
	require.Len(t, drives, 2)
	require.Equal(t, "DriveA", drives[0].Name)
}
