package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTokens struct {
	mock.Mock
}

func (m *mockTokens) Token() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func staticTokens(tok string) *mockTokens {
	m := &mockTokens{}
	m.On("Token").Return(tok, nil)
	return m
}

type receivedForm struct {
	Key      string
	Token    string
	FileName string
	Content  string
}

// formServer echoes the uploaded key back the way the upload service does
func formServer(t *testing.T, got chan<- receivedForm) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)

		form := receivedForm{
			Key:      r.FormValue("key"),
			Token:    r.FormValue("token"),
			FileName: header.Filename,
			Content:  string(content),
		}
		if got != nil {
			got <- form
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"hash":"Fh8xVqod2MQ1mocfI4S4KpRL6D98","key":%q}`, form.Key)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fixedKeys(key string) KeyGenerator {
	return KeyGeneratorFunc(func() string { return key })
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUpload_File(t *testing.T) {
	got := make(chan receivedForm, 1)
	srv := formServer(t, got)
	tokens := staticTokens("AK:sig:policy")

	client := New(tokens, WithEndpoint(srv.URL), WithKeyGenerator(fixedKeys("100000000042")))
	path := writeTempFile(t, "hello.txt", "hello world")

	res, err := client.Upload(context.Background(), File(path))
	require.NoError(t, err)

	assert.Equal(t, "100000000042", res.Key)
	assert.Equal(t, "100000000042", res.Resource)
	assert.Equal(t, "Fh8xVqod2MQ1mocfI4S4KpRL6D98", res.Hash)

	form := <-got
	assert.Equal(t, receivedForm{
		Key:      "100000000042",
		Token:    "AK:sig:policy",
		FileName: "hello.txt",
		Content:  "hello world",
	}, form)
	tokens.AssertNumberOfCalls(t, "Token", 1)
}

func TestUpload_ReaderWithDomain(t *testing.T) {
	got := make(chan receivedForm, 1)
	srv := formServer(t, got)

	client := New(staticTokens("t:t:t"),
		WithEndpoint(srv.URL),
		WithDomain("https://cdn.example.com/"),
		WithKeyGenerator(fixedKeys("abc")),
	)

	res, err := client.Upload(context.Background(), Reader("data.bin", strings.NewReader("payload")))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/abc", res.Resource)

	form := <-got
	assert.Equal(t, "data.bin", form.FileName)
	assert.Equal(t, "payload", form.Content)
}

func TestUpload_TokenErrorStopsUpload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	tokenErr := errors.New("bucket name is required")
	tokens := &mockTokens{}
	tokens.On("Token").Return("", tokenErr)

	client := New(tokens, WithEndpoint(srv.URL))
	_, err := client.Upload(context.Background(), Reader("x", strings.NewReader("x")))

	require.Error(t, err)
	assert.ErrorIs(t, err, tokenErr)
	assert.Zero(t, hits.Load())
}

func TestUpload_MissingFile(t *testing.T) {
	client := New(staticTokens("t:t:t"), WithEndpoint("http://127.0.0.1:1"))

	_, err := client.Upload(context.Background(), File(filepath.Join(t.TempDir(), "missing.txt")))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestUpload_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"service error message", http.StatusUnauthorized, `{"error":"bad token"}`, "bad token"},
		{"plain body", http.StatusInternalServerError, "boom", "500 Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := New(staticTokens("t:t:t"), WithEndpoint(srv.URL))
			_, err := client.Upload(context.Background(), Reader("x", strings.NewReader("x")))

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTransport)

			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Contains(t, te.Error(), tt.wantMsg)
		})
	}
}

func TestUpload_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client := New(staticTokens("t:t:t"), WithEndpoint(endpoint))
	_, err := client.Upload(context.Background(), Reader("x", strings.NewReader("x")))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.Equal(t, "post", te.Op)
}

func TestUpload_ResponseFormat(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>ok</html>"},
		{"missing key", `{"hash":"abc"}`},
		{"empty key", `{"key":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := New(staticTokens("t:t:t"), WithEndpoint(srv.URL))
			_, err := client.Upload(context.Background(), Reader("x", strings.NewReader("x")))

			assert.ErrorIs(t, err, ErrResponseFormat)
			assert.NotErrorIs(t, err, ErrTransport)
		})
	}
}

func TestUpload_Progress(t *testing.T) {
	srv := formServer(t, nil)

	var mu sync.Mutex
	var last int64
	client := New(staticTokens("t:t:t"),
		WithEndpoint(srv.URL),
		WithProgress(func(name string, n int64) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "big.bin", name)
			last = n
		}),
	)

	content := strings.Repeat("a", 100_000)
	_, err := client.Upload(context.Background(), Reader("big.bin", strings.NewReader(content)))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int64(len(content)), last)
}

func TestUpload_ContextCanceled(t *testing.T) {
	srv := formServer(t, nil)
	client := New(staticTokens("t:t:t"), WithEndpoint(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Upload(ctx, Reader("x", strings.NewReader("x")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUploadAll(t *testing.T) {
	srv := formServer(t, nil)

	var n atomic.Int32
	keys := KeyGeneratorFunc(func() string {
		return fmt.Sprintf("key-%d", n.Add(1))
	})
	client := New(staticTokens("t:t:t"), WithEndpoint(srv.URL), WithKeyGenerator(keys), WithDomain("d"))

	sources := []Source{
		Reader("a", strings.NewReader("a")),
		Reader("b", strings.NewReader("b")),
		Reader("c", strings.NewReader("c")),
	}
	results, err := client.UploadAll(context.Background(), sources, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	seen := map[string]bool{}
	for _, res := range results {
		require.NotNil(t, res)
		assert.True(t, strings.HasPrefix(res.Resource, "d/key-"))
		seen[res.Key] = true
	}
	assert.Len(t, seen, 3)
}

func TestUploadAll_KeepsInputOrder(t *testing.T) {
	// Replies carry a key derived from the content; "a" finishes last.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)

		if string(content) == "a" {
			time.Sleep(200 * time.Millisecond)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"key":"k-%s"}`, content)
	}))
	t.Cleanup(srv.Close)

	client := New(staticTokens("t:t:t"), WithEndpoint(srv.URL))
	sources := []Source{
		Reader("a", strings.NewReader("a")),
		Reader("b", strings.NewReader("b")),
		Reader("c", strings.NewReader("c")),
	}

	results, err := client.UploadAll(context.Background(), sources, 3)
	require.NoError(t, err)
	require.Len(t, results, len(sources))
	for i, src := range sources {
		assert.Equal(t, "k-"+src.Name(), results[i].Key)
	}
}

func TestUploadAll_FirstErrorReturned(t *testing.T) {
	srv := formServer(t, nil)
	client := New(staticTokens("t:t:t"), WithEndpoint(srv.URL))

	sources := []Source{
		Reader("ok", strings.NewReader("a")),
		File(filepath.Join(t.TempDir(), "nope.txt")),
	}
	results, err := client.UploadAll(context.Background(), sources, 0)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "nope.txt")
}

func TestNew_Defaults(t *testing.T) {
	client := New(staticTokens("t:t:t"))
	assert.Equal(t, DefaultEndpoint, client.Endpoint())
	assert.IsType(t, &TimestampKeys{}, client.keys)
}
