package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrPageOutOfRange = errors.New("storage: page number out of range")
	ErrFileNotFound   = errors.New("storage: file does not exist")
)

// FileManager performs block-aligned reads, writes, and appends against
// named files rooted under a single data directory. One *os.File handle is
// kept open per filename, lazily, guarded by a mutex — callers may use a
// FileManager concurrently.
type FileManager struct {
	dataDir   string
	blockSize int

	mu    sync.Mutex
	files map[string]*os.File

	log *slog.Logger
}

// NewFileManager returns a FileManager rooted at dataDir using blockSize-
// byte blocks. dataDir is created if it does not already exist.
func NewFileManager(dataDir string, blockSize int) (*FileManager, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir %q: %w", dataDir, err)
	}
	return &FileManager{
		dataDir:   dataDir,
		blockSize: blockSize,
		files:     make(map[string]*os.File),
		log:       slog.Default().With("component", "storage"),
	}, nil
}

func (fm *FileManager) path(filename string) string {
	return filepath.Join(fm.dataDir, filename)
}

func (fm *FileManager) BlockSize() int { return fm.blockSize }

// handle returns the open file handle for filename, opening (and creating,
// if create is true) it on first use. Caller must hold fm.mu.
func (fm *FileManager) handle(filename string, create bool) (*os.File, error) {
	if f, ok := fm.files[filename]; ok {
		return f, nil
	}
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	} else if _, err := os.Stat(fm.path(filename)); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage: open %q: %w", filename, ErrFileNotFound)
		}
		return nil, fmt.Errorf("storage: stat %q: %w", filename, err)
	}
	f, err := os.OpenFile(fm.path(filename), flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", filename, err)
	}
	fm.files[filename] = f
	return f, nil
}

// CreateFileIfNotExists ensures filename exists (empty if newly created).
func (fm *FileManager) CreateFileIfNotExists(filename string) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	_, err := fm.handle(filename, true)
	return err
}

// Exists reports whether filename has been created.
func (fm *FileManager) Exists(filename string) bool {
	if _, err := os.Stat(fm.path(filename)); err == nil {
		return true
	}
	fm.mu.Lock()
	_, tracked := fm.files[filename]
	fm.mu.Unlock()
	return tracked
}

// PageCount returns the number of whole blocks currently in filename.
func (fm *FileManager) PageCount(filename string) (uint64, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	f, err := fm.handle(filename, false)
	if err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("storage: stat %q: %w", filename, err)
	}
	return uint64(info.Size()) / uint64(fm.blockSize), nil
}

// Read fills buf (which must be exactly BlockSize() long) with the
// contents of the pageNumber-th block of filename. Short reads past
// end-of-file are zero-filled, matching the original FileManager's
// always-full-block read contract.
func (fm *FileManager) Read(filename string, pageNumber uint64, buf []byte) error {
	if len(buf) != fm.blockSize {
		return fmt.Errorf("storage: read %q: buffer size %d != block size %d", filename, len(buf), fm.blockSize)
	}
	fm.mu.Lock()
	defer fm.mu.Unlock()
	f, err := fm.handle(filename, false)
	if err != nil {
		return err
	}
	n, err := f.ReadAt(buf, int64(pageNumber)*int64(fm.blockSize))
	if err != nil && n == 0 {
		return fmt.Errorf("storage: read %q page %d: %w", filename, pageNumber, err)
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

// Write writes buf (exactly BlockSize() bytes) as the pageNumber-th block
// of filename. pageNumber must already exist (see Append to grow a file).
func (fm *FileManager) Write(filename string, pageNumber uint64, buf []byte) error {
	if len(buf) != fm.blockSize {
		return fmt.Errorf("storage: write %q: buffer size %d != block size %d", filename, len(buf), fm.blockSize)
	}
	fm.mu.Lock()
	defer fm.mu.Unlock()
	f, err := fm.handle(filename, false)
	if err != nil {
		return err
	}
	if _, err := f.WriteAt(buf, int64(pageNumber)*int64(fm.blockSize)); err != nil {
		return fmt.Errorf("storage: write %q page %d: %w", filename, pageNumber, err)
	}
	return nil
}

// Append appends n zeroed blocks to filename (creating it if needed) and
// returns the page number of the LAST block appended — not a count, and
// not the first appended page number. Callers that append more than one
// block and need the first page number should subtract n-1.
func (fm *FileManager) Append(filename string, n int) (uint64, error) {
	if n <= 0 {
		n = 1
	}
	fm.mu.Lock()
	defer fm.mu.Unlock()
	f, err := fm.handle(filename, true)
	if err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("storage: stat %q: %w", filename, err)
	}
	zeros := make([]byte, fm.blockSize)
	off := info.Size()
	for i := 0; i < n; i++ {
		if _, err := f.WriteAt(zeros, off); err != nil {
			return 0, fmt.Errorf("storage: append %q: %w", filename, err)
		}
		off += int64(fm.blockSize)
	}
	if err := f.Sync(); err != nil {
		fm.log.Warn("sync after append failed", "file", filename, "err", err)
	}
	lastPage := uint64(off)/uint64(fm.blockSize) - 1
	return lastPage, nil
}

// DeleteFile closes (if open) and removes filename.
func (fm *FileManager) DeleteFile(filename string) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if f, ok := fm.files[filename]; ok {
		if err := f.Close(); err != nil {
			fm.log.Warn("close before delete failed", "file", filename, "err", err)
		}
		delete(fm.files, filename)
	}
	if err := os.Remove(fm.path(filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete %q: %w", filename, err)
	}
	return nil
}

// Close closes every open file handle.
func (fm *FileManager) Close() error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	var firstErr error
	for name, f := range fm.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("storage: close %q: %w", name, err)
		}
	}
	fm.files = make(map[string]*os.File)
	return firstErr
}
