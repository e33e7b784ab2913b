package materials

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jengacalc/jengacalc/internal/logging"
	"github.com/jengacalc/jengacalc/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 7, 9, 30, 0, 0, time.UTC)

func TestFileSink_AppendsConcurrently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "materials.txt")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sink.Append(context.Background(), Entry{Record: "line\n"}))
		}()
	}
	wg.Wait()

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 20*len("line\n"))
}

type fakePutter struct {
	mu   sync.Mutex
	in   []*s3.PutObjectInput
	body []string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.in = append(f.in, in)
	f.body = append(f.body, string(b))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink_Append(t *testing.T) {
	p := &fakePutter{}
	sink := &S3Sink{client: p, bucket: "materials"}

	require.NoError(t, sink.Append(context.Background(), Entry{Calculator: "Concrete", Record: "Volume: 1 m³\n", CreatedAt: at}))

	require.Len(t, p.in, 1)
	assert.Equal(t, "materials", aws.ToString(p.in[0].Bucket))
	assert.Regexp(t, regexp.MustCompile(`^materials/2026/03/07/concrete-[0-9a-f-]{36}\.txt$`), aws.ToString(p.in[0].Key))
	assert.Equal(t, "Volume: 1 m³\n", p.body[0])
}

func TestS3Sink_Error(t *testing.T) {
	sink := &S3Sink{client: &fakePutter{err: errors.New("denied")}, bucket: "materials"}
	err := sink.Append(context.Background(), Entry{Calculator: "plaster", CreatedAt: at})
	assert.ErrorContains(t, err, "denied")
}

func TestLog_SwallowsSinkErrors(t *testing.T) {
	l := NewLog(&S3Sink{client: &fakePutter{err: errors.New("down")}, bucket: "b"}, logging.Nop{})
	assert.NotPanics(t, func() {
		l.Record(context.Background(), "walling", "a@gmail.com", "x", at)
	})

	var nilLog *Log
	assert.NotPanics(t, func() {
		nilLog.Record(context.Background(), "walling", "a@gmail.com", "x", at)
	})
}

func TestNewSink(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.MaterialsLogPath = filepath.Join(t.TempDir(), "materials.txt")

	s, err := NewSink(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, s)

	cfg.MaterialsSink = config.SinkS3
	s, err = NewSink(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &S3Sink{}, s)

	cfg.MaterialsSink = "ftp"
	_, err = NewSink(context.Background(), cfg)
	assert.Error(t, err)
}
