package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fieldform/internal/core"
)

func TestServiceExportPDF_BadFontLeavesStore(t *testing.T) {
	tests := []struct {
		name  string
		fonts FontSource
	}{
		{"missing file", FileFontSource{Path: "/nonexistent/font.ttf"}},
		{"not a font", &staticFont{data: []byte("not a font")}},
		{"corrupt tables", &staticFont{data: append([]byte("true"), make([]byte, 60)...)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := core.NewService(NewRenderer(tt.fonts), nil, core.ServiceConfig{})
			require.NoError(t, err)
			sess := svc.Sessions().Create()

			var dl *core.Download
			require.NotPanics(t, func() {
				dl, err = svc.ExportPDF(context.Background(), sess, core.Form{Identifier: "A1"})
			})
			assert.ErrorIs(t, err, core.ErrFontUnavailable)
			assert.Nil(t, dl)
			assert.Zero(t, sess.Store().Len(), "a failed document export must not add the record")

			csv, err := svc.ExportCSV(context.Background(), sess, core.Form{Identifier: "A1"})
			require.NoError(t, err, "CSV export stays available after a font failure")
			assert.Equal(t, 1, csv.Records)
		})
	}
}
