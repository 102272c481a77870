package delivery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDirSinkWritesArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := NewDirSink(dir, zap.NewNop())

	loc, err := sink.Deliver(context.Background(), Artifact{Filename: "INV-1.pdf", Body: []byte("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "INV-1.pdf"), loc)
	body, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(body))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDirSinkRejectsPathInFilename(t *testing.T) {
	sink := NewDirSink(t.TempDir(), nil)
	_, err := sink.Deliver(context.Background(), Artifact{Filename: "../x.pdf"})
	assert.Error(t, err)
	_, err = sink.Deliver(context.Background(), Artifact{})
	assert.ErrorIs(t, err, ErrEmptyFilename)
}

type uploaderMock struct {
	mock.Mock
}

func (m *uploaderMock) UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(*s3manager.UploadOutput), args.Error(1)
}

func TestS3SinkUploadsUnderPrefix(t *testing.T) {
	up := &uploaderMock{}
	up.On("UploadWithContext", mock.Anything, mock.MatchedBy(func(in *s3manager.UploadInput) bool {
		return aws.StringValue(in.Bucket) == "invoices" &&
			aws.StringValue(in.Key) == "acme/INV-1.docx" &&
			in.Body != nil
	})).Return(&s3manager.UploadOutput{}, nil)

	sink := NewS3SinkWithUploader("invoices", "/acme/", up, nil)
	loc, err := sink.Deliver(context.Background(), Artifact{Filename: "INV-1.docx", Body: []byte("doc")})
	require.NoError(t, err)
	assert.Equal(t, "s3://invoices/acme/INV-1.docx", loc)
	up.AssertExpectations(t)
}

func TestNewPicksSinkFromTarget(t *testing.T) {
	sink, err := New(config.Config{DeliveryTarget: "dir:" + t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &DirSink{}, sink)

	_, err = New(config.Config{DeliveryTarget: "ftp://host"}, nil)
	assert.Error(t, err)

	bucket, prefix, err := parseS3Target("s3://bucket/some/prefix")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "/some/prefix", prefix)
}
