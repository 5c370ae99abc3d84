//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package store_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/worldsync/internal/store"
	"github.com/joe/worldsync/internal/transfer"
)

type fakeObject struct {
	data         []byte
	metadata     map[string]string
	lastModified time.Time
}

// fakeS3 is an in-memory bucket. pageSize > 0 splits listings into pages.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]fakeObject
	pageSize int
	listErr  error
	now      time.Time
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject), now: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	prefix := aws.ToString(in.Prefix)

	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) && !strings.Contains(strings.TrimPrefix(key, prefix), "/") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if token := aws.ToString(in.ContinuationToken); token != "" {
		for i, key := range keys {
			if key == token {
				keys = keys[i:]
				break
			}
		}
	}

	out := &s3.ListObjectsV2Output{}
	if f.pageSize > 0 && len(keys) > f.pageSize {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[f.pageSize])
		keys = keys[:f.pageSize]
	}

	for _, key := range keys {
		object := f.objects[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(object.data))),
			LastModified: aws.Time(object.lastModified),
		})
	}

	return out, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	object, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}

	return &s3.HeadObjectOutput{Metadata: object.metadata, LastModified: aws.Time(object.lastModified)}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	object, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(object.data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, metadata: in.Metadata, lastModified: f.now}

	return &s3.PutObjectOutput{}, nil
}

func TestS3_UploadKeepsModTimeAcrossListing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	client := newFakeS3()
	bucket := store.NewS3(client, "saves", "/valheim/")
	g.Expect(bucket.Name()).Should(Equal("s3://saves/valheim/"))

	stamp := time.Date(2021, 8, 14, 18, 30, 0, 123_000_000, time.UTC)
	key, err := bucket.Upload(context.Background(), transfer.UploadRequest{
		Name:    "Meadow.db",
		Body:    strings.NewReader("meadow"),
		Size:    -1,
		ModTime: stamp,
	})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(key).Should(Equal("valheim/Meadow.db"))

	entries, err := bucket.List(context.Background())
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(entries).Should(HaveLen(1))
	g.Expect(entries[0].Identity).Should(Equal("Meadow.db"))
	g.Expect(entries[0].Location).Should(Equal("valheim/Meadow.db"))
	g.Expect(entries[0].Size).Should(Equal(int64(6)))
	g.Expect(entries[0].ModifiedAt.Equal(stamp)).Should(BeTrue(), "mtime metadata must win over LastModified")

	reader, err := bucket.Download(context.Background(), key)
	g.Expect(err).ShouldNot(HaveOccurred())
	data, err := io.ReadAll(reader)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(data)).Should(Equal("meadow"))
}

func TestS3_ListFallsBackToLastModifiedAndSkipsNested(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	client := newFakeS3()
	client.pageSize = 1
	lastModified := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	client.objects["Forest.db"] = fakeObject{data: []byte("f"), lastModified: lastModified}
	client.objects["Forest.fwl"] = fakeObject{data: []byte("f"), lastModified: lastModified,
		metadata: map[string]string{"mtime": "not a time"}}
	client.objects["archive/Forest.db"] = fakeObject{data: []byte("old"), lastModified: lastModified}

	entries, err := store.NewS3(client, "saves", "").List(context.Background())
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(entries).Should(HaveLen(2))

	for _, entry := range entries {
		g.Expect(entry.ModifiedAt).Should(Equal(lastModified))
	}
}

func TestS3_ListFailure(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	client := newFakeS3()
	client.listErr = errors.New("AccessDenied")

	_, err := store.NewS3(client, "saves", "").List(context.Background())
	g.Expect(err).Should(MatchError(ContainSubstring("AccessDenied")))
}

func TestS3_DownloadMissingKey(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := store.NewS3(newFakeS3(), "saves", "").Download(context.Background(), "Nope.db")

	var noSuchKey *types.NoSuchKey
	g.Expect(errors.As(err, &noSuchKey)).Should(BeTrue())
}
