package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/UnendingLoop/pixelpushup/internal/imageproc"
	"github.com/UnendingLoop/pixelpushup/internal/model"
	"github.com/UnendingLoop/pixelpushup/internal/pipeline"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

type mockStore struct {
	puts           map[string][]byte
	bucketExistsFn func(ctx context.Context, bucket string) (bool, error)
}

func (m *mockStore) Put(ctx context.Context, bucket, key string, size int64, contentType string, r io.Reader) error {
	if m.puts == nil {
		m.puts = make(map[string][]byte)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.puts[key] = data
	return nil
}

func (m *mockStore) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	_, ok := m.puts[key]
	return ok, nil
}

func (m *mockStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if m.bucketExistsFn != nil {
		return m.bucketExistsFn(ctx, bucket)
	}
	return true, nil
}

type mockPublisher struct {
	keys     [][]byte
	payloads [][]byte
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, strategy retry.Strategy, k []byte, v []byte) error {
	m.keys = append(m.keys, k)
	m.payloads = append(m.payloads, v)
	return nil
}

func testImageBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 180, B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.PNG)
	require.NoError(t, err)

	return buf.Bytes()
}

func newTestService(t *testing.T, store *mockStore, pub TaskPublisher) (*PushupService, func()) {
	t.Helper()

	pool := pipeline.NewPool(4)
	gen := imageproc.NewGenerator(imageproc.DefaultEncoding(), imageproc.NewDimensionCache())
	pl := pipeline.New(gen, pool, model.OriginalPassthrough)

	return NewPushupService(pl, store, pub, "assets-prod", true), pool.Close
}

func TestPushupService_Process_LocalReturnsArchive(t *testing.T) {
	svc, closePool := newTestService(t, &mockStore{}, &mockPublisher{})
	defer closePool()

	raw := &model.ProcessRequest{
		Files: []model.UploadedFile{
			{Filename: "one.png", Data: testImageBytes(t, 400, 200)},
		},
		Mode:       "local",
		ExportType: "png",
	}

	res, err := svc.Process(context.Background(), raw)
	require.NoError(t, err)
	require.NotEmpty(t, res.Archive)
	require.Nil(t, res.Report)

	zr, err := zip.NewReader(bytes.NewReader(res.Archive), int64(len(res.Archive)))
	require.NoError(t, err)
	require.Len(t, zr.File, 7)
}

func TestPushupService_Process_RemoteReturnsReportAndPublishes(t *testing.T) {
	store := &mockStore{}
	pub := &mockPublisher{}
	svc, closePool := newTestService(t, store, pub)
	defer closePool()

	raw := &model.ProcessRequest{
		Files: []model.UploadedFile{
			{Filename: "one.png", Data: testImageBytes(t, 1000, 500)},
		},
		Mode:       "remote",
		ExportType: "jpg", // folded into jpeg
		KeyPrefix:  "uploads/batch-1",
	}

	res, err := svc.Process(context.Background(), raw)
	require.NoError(t, err)
	require.Nil(t, res.Archive)
	require.NotNil(t, res.Report)
	require.NotEqual(t, "", res.Report.BatchID.String())
	require.Len(t, res.Report.Files, 1)

	rep := res.Report.Files[0]
	require.Equal(t, "one.png", rep.SourceFilename)
	require.Equal(t, "s3://assets-prod/uploads/batch-1/one/original.png", rep.OriginalLocation)
	require.Len(t, rep.Derivatives, 6)
	for _, d := range rep.Derivatives {
		require.NotEmpty(t, d.Location)
		require.Contains(t, d.Location, "s3://assets-prod/uploads/batch-1/one/")
		require.Contains(t, d.Location, "."+string(model.ExportJPEG))
	}

	// 6 derivatives + original in the store
	require.Len(t, store.puts, 7)
	require.Contains(t, store.puts, "uploads/batch-1/one/original.png")
	require.Contains(t, store.puts, "uploads/batch-1/one/xxl.jpeg")

	// completion event carries the same report
	require.Len(t, pub.payloads, 1)
	var published model.BatchReport
	require.NoError(t, json.Unmarshal(pub.payloads[0], &published))
	require.Equal(t, res.Report.BatchID, published.BatchID)
	require.Equal(t, string(pub.keys[0]), res.Report.BatchID.String())
}

func TestPushupService_Process_ParamErrors(t *testing.T) {
	svc, closePool := newTestService(t, &mockStore{}, &mockPublisher{})
	defer closePool()

	valid := []model.UploadedFile{{Filename: "x.png", Data: testImageBytes(t, 10, 10)}}

	tests := []struct {
		name    string
		raw     *model.ProcessRequest
		wantErr error
	}{
		{
			name:    "no files",
			raw:     &model.ProcessRequest{Mode: "local"},
			wantErr: model.ErrNoImages,
		},
		{
			name:    "bad mode",
			raw:     &model.ProcessRequest{Files: valid, Mode: "carrier-pigeon"},
			wantErr: model.ErrIncorrectMode,
		},
		{
			name:    "bad export type",
			raw:     &model.ProcessRequest{Files: valid, Mode: "local", ExportType: "tiff"},
			wantErr: model.ErrIncorrectExport,
		},
		{
			name:    "remote without prefix",
			raw:     &model.ProcessRequest{Files: valid, Mode: "remote"},
			wantErr: model.ErrMissingPrefix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Process(context.Background(), tt.raw)
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, model.CategoryValidation, model.CategoryOf(err))
		})
	}
}

func TestPushupService_Process_BucketMissingFailsBeforeWrites(t *testing.T) {
	store := &mockStore{
		bucketExistsFn: func(ctx context.Context, bucket string) (bool, error) { return false, nil },
	}
	pub := &mockPublisher{}
	svc, closePool := newTestService(t, store, pub)
	defer closePool()

	raw := &model.ProcessRequest{
		Files:     []model.UploadedFile{{Filename: "x.png", Data: testImageBytes(t, 10, 10)}},
		Mode:      "aws", // legacy alias for remote
		KeyPrefix: "uploads",
	}

	_, err := svc.Process(context.Background(), raw)
	require.ErrorIs(t, err, model.ErrBucketMissing)
	require.Equal(t, model.CategoryPrecheck, model.CategoryOf(err))
	require.Empty(t, store.puts)
	require.Empty(t, pub.payloads)
}

func TestValidateNormalizeParams_Defaults(t *testing.T) {
	raw := &model.ProcessRequest{
		Files: []model.UploadedFile{{Filename: "x.png"}},
	}

	req, err := validateNormalizeParams(raw, "assets-prod")
	require.NoError(t, err)
	require.Equal(t, model.DeliveryLocal, req.Target.Mode)
	require.Equal(t, model.ExportWEBP, req.ExportFormat)
}
