package sink

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/UnendingLoop/pixelpushup/internal/model"
	"github.com/stretchr/testify/require"
)

func TestArchiveSink_RejectsWrongMode(t *testing.T) {
	s := NewArchiveSink()

	err := s.Prepare(context.Background(), model.SinkTarget{Mode: model.DeliveryRemote})
	require.Error(t, err)
	require.Equal(t, model.CategoryPrecheck, model.CategoryOf(err))
}

func TestArchiveSink_Layout(t *testing.T) {
	ctx := context.Background()
	s := NewArchiveSink()
	require.NoError(t, s.Prepare(ctx, model.SinkTarget{Mode: model.DeliveryLocal}))

	// two images, original + every tier each
	stems := []string{"first", "second"}
	wantNames := make([]string, 0, 14)
	for _, stem := range stems {
		key := stem + "/original.png"
		require.NoError(t, s.Write(ctx, key, []byte("orig-"+stem), model.PNG))
		wantNames = append(wantNames, key)

		for _, spec := range model.Tiers {
			key := fmt.Sprintf("%s/%s.webp", stem, spec.Tier)
			require.NoError(t, s.Write(ctx, key, []byte(key), model.WEBP))
			wantNames = append(wantNames, key)
		}
	}
	require.Equal(t, 14, s.Entries())

	deliverable, err := s.Finalize()
	require.NoError(t, err)
	require.NotEmpty(t, deliverable.Archive)
	require.Nil(t, deliverable.Locations)

	zr, err := zip.NewReader(bytes.NewReader(deliverable.Archive), int64(len(deliverable.Archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 7*len(stems))

	gotNames := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		gotNames = append(gotNames, f.Name)
	}
	require.Equal(t, wantNames, gotNames)

	rc, err := zr.Open("first/t.webp")
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, []byte("first/t.webp"), content)
}
