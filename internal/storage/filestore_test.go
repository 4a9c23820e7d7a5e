package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
)

// seed returns a reader yielding each 16-byte block in turn
func seed(blocks ...byte) *bytes.Reader {
	var buf bytes.Buffer
	for _, b := range blocks {
		buf.Write(bytes.Repeat([]byte{b}, 16))
	}
	return bytes.NewReader(buf.Bytes())
}

func TestSaveWritesBytesVerbatim(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "podcasts", WithRandom(seed(0xab)))

	data := []byte{0x00, 0xff, 'R', 'I', 'F', 'F', 0x10}
	art, err := store.Save(data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if art.FileName != "podcast_abababab.wav" {
		t.Errorf("FileName = %s", art.FileName)
	}
	if art.FilePath != filepath.Join("podcasts", "podcast_abababab.wav") {
		t.Errorf("FilePath = %s", art.FilePath)
	}
	if art.Size != int64(len(data)) {
		t.Errorf("Size = %d", art.Size)
	}

	got, err := afero.ReadFile(fs, art.FilePath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("file bytes = %v, want %v", got, data)
	}
}

func TestSaveCreatesDirectoryIdempotently(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("podcasts", 0o755); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(fs, "podcasts", WithRandom(seed(0x01, 0x02)))

	for i := 0; i < 2; i++ {
		if _, err := store.Save([]byte("x")); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	entries, err := afero.ReadDir(fs, "podcasts")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestSaveRegeneratesNameOnCollision(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "podcasts", WithRandom(seed(0x11, 0x11, 0x22)))

	first, err := store.Save([]byte("first"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := store.Save([]byte("second"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if first.FileName != "podcast_11111111.wav" || second.FileName != "podcast_22222222.wav" {
		t.Errorf("names = %s, %s", first.FileName, second.FileName)
	}

	got, _ := afero.ReadFile(fs, first.FilePath)
	if string(got) != "first" {
		t.Errorf("first file overwritten: %q", got)
	}
}

func TestSaveGivesUpAfterRepeatedCollisions(t *testing.T) {
	fs := afero.NewMemMapFs()
	blocks := make([]byte, maxNameAttempts+1)
	for i := range blocks {
		blocks[i] = 0x33
	}
	store := NewFileStore(fs, "podcasts", WithRandom(seed(blocks...)))

	if _, err := store.Save([]byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save([]byte("b")); err == nil {
		t.Error("expected error when every name collides")
	}
}

func TestSaveRandomSourceExhausted(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "podcasts", WithRandom(bytes.NewReader(nil)))
	if _, err := store.Save([]byte("a")); err == nil {
		t.Error("expected error")
	}
}

type failingFile struct {
	afero.File
}

func (f failingFile) Write(p []byte) (int, error) {
	f.File.Write(p[:len(p)/2])
	return len(p) / 2, errors.New("disk full")
}

type failingWriteFs struct {
	afero.Fs
}

func (fs failingWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return failingFile{f}, nil
}

func TestSaveRemovesPartialFileOnWriteFailure(t *testing.T) {
	mem := afero.NewMemMapFs()
	store := NewFileStore(failingWriteFs{mem}, "podcasts", WithRandom(seed(0x44)))

	if _, err := store.Save([]byte("some audio bytes")); err == nil {
		t.Fatal("expected error")
	}

	exists, err := afero.Exists(mem, filepath.Join("podcasts", "podcast_44444444.wav"))
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("partial file left behind")
	}
}

func TestSaveReadOnlyFilesystem(t *testing.T) {
	mem := afero.NewMemMapFs()
	mem.MkdirAll("podcasts", 0o755)
	store := NewFileStore(afero.NewReadOnlyFs(mem), "podcasts", WithRandom(seed(0x55)))

	if _, err := store.Save([]byte("a")); err == nil {
		t.Error("expected error")
	}
}

func TestSaveConcurrentCallsGetDistinctFiles(t *testing.T) {
	const n = 32
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "podcasts")

	names := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			art, err := store.Save([]byte{byte(i)})
			if err != nil {
				errs[i] = err
				return
			}
			names[i] = art.FileName
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i, name := range names {
		if errs[i] != nil {
			t.Fatalf("Save %d: %v", i, errs[i])
		}
		if seen[name] {
			t.Errorf("name %s returned twice", name)
		}
		seen[name] = true

		got, err := afero.ReadFile(fs, filepath.Join("podcasts", name))
		if err != nil || len(got) != 1 || got[0] != byte(i) {
			t.Errorf("%s = %v, %v; want [%d]", name, got, err, i)
		}
	}

	entries, err := afero.ReadDir(fs, "podcasts")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != n {
		t.Errorf("%d files on disk, want %d", len(entries), n)
	}
}

func TestRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "podcasts", WithRandom(seed(0x0c)))
	art, err := store.Save([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Remove(art.FileName); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, _ := afero.Exists(fs, art.FilePath); ok {
		t.Error("file still exists")
	}
	if err := store.Remove(art.FileName); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}
	if err := store.Remove("../etc/passwd"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Remove traversal = %v, want ErrInvalidName", err)
	}
}

func TestOpen(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "podcasts", WithRandom(seed(0x66)))
	art, err := store.Save([]byte("audio"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.ReadFile(art.FileName)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "audio" {
		t.Errorf("got %q", got)
	}

	if _, _, err := store.Open("podcast_00000000.wav"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file err = %v", err)
	}
	if _, _, err := store.Open("../secrets.wav"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("traversal err = %v", err)
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"podcast_0a1b2c3d.wav", true},
		{"podcast_0A1B2C3D.wav", false},
		{"podcast_0a1b2c3.wav", false},
		{"podcast_0a1b2c3d.mp3", false},
		{"../podcast_0a1b2c3d.wav", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidName(tt.name); got != tt.want {
			t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
