package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
)

func TestSupabaseDelete(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "deleted", status: http.StatusOK},
		{name: "already gone", status: http.StatusNotFound},
		{name: "rejected", status: http.StatusForbidden, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			s := NewSupabaseStorage(config.StorageConfig{SupabaseURL: srv.URL, SupabaseKey: "svc", Bucket: "media"})
			err := s.Delete(context.Background(), "videos/9.mp4")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, "/storage/v1/object/media/videos/9.mp4", gotPath)
			assert.Equal(t, "Bearer svc", gotAuth)
		})
	}
}

func TestMediaStoreSaveAndRemove(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root)

	path, err := m.Save(3, "../../etc/report.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, filepath.Join(root, "documents", "3")))
	assert.True(t, strings.HasSuffix(path, "_report.pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, m.Remove(path))
	require.NoError(t, m.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
