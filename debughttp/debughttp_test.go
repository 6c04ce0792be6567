package debughttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/container"
)

func TestHandleContainersListsDRO(t *testing.T) {
	base, err := container.New(t.Name() + "-base")
	require.NoError(t, err)
	root, err := container.New(t.Name() + "-root")
	require.NoError(t, err)
	_, err = root.Include(base)
	require.NoError(t, err)

	srv := New(root, false)

	req := httptest.NewRequest(http.MethodGet, "/containers", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), base.Name())
	assert.Contains(t, rec.Body.String(), root.Name())
}

func TestHandleDROReportsSelfLast(t *testing.T) {
	base, err := container.New(t.Name() + "-base")
	require.NoError(t, err)
	root, err := container.New(t.Name() + "-root")
	require.NoError(t, err)
	_, err = root.Include(base)
	require.NoError(t, err)

	srv := New(root, false)

	req := httptest.NewRequest(http.MethodGet, "/containers/dro", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, indexOf(body, base.Name()) < indexOf(body, root.Name()))
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
