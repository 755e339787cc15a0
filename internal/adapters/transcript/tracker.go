package transcript

import (
	"bufio"
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

// Tracker follows a rotating transcript by byte offset. The cursor
// only moves forward while the active file is unchanged and resets
// when the active file switches identity.
type Tracker struct {
	dir          string
	skipExisting bool
	logger       *zap.Logger

	current     string
	offset      int64
	initialized bool
}

var _ ports.TranscriptTracker = (*Tracker)(nil)

// NewTracker watches dir for transcript files. With skipExisting the
// first observation jumps to the end of the file already on disk, so
// only turns appended afterwards are reported.
func NewTracker(dir string, skipExisting bool, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{dir: dir, skipExisting: skipExisting, logger: logger}
}

// Offset reports the current byte position within the active file.
func (t *Tracker) Offset() int64 { return t.offset }

// Poll returns the messages appended since the previous call. Read
// failures are logged and yield an empty batch with the cursor left
// untouched.
func (t *Tracker) Poll(ctx context.Context) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := ActiveFile(t.dir)
	if path == "" {
		return nil, nil
	}

	if path != t.current {
		if t.skipExisting && !t.initialized {
			info, err := os.Stat(path)
			if err != nil {
				t.logger.Warn("stat transcript", zap.String("path", path), zap.Error(err))
				return nil, nil
			}
			t.current = path
			t.offset = info.Size()
			t.initialized = true
			return nil, nil
		}
		t.logger.Debug("transcript switched", zap.String("path", path))
		t.current = path
		t.offset = 0
	}
	t.initialized = true

	messages, next, err := readFrom(path, t.offset)
	if err != nil {
		t.logger.Warn("read transcript", zap.String("path", path), zap.Error(err))
		return nil, nil
	}
	t.offset = next

	return messages, nil
}

// readFrom parses every line from offset to the end of file. The
// returned position is the end of the last consumed line; malformed
// lines are skipped but still advance it.
func readFrom(path string, offset int64) ([]domain.Message, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, offset, err
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, err
	}

	var (
		messages []domain.Message
		pos      = offset
		reader   = bufio.NewReader(file)
	)

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			pos += int64(len(line))
			if msg, ok := parseEntry(line); ok {
				messages = append(messages, msg)
			}
		}
		if err == io.EOF {
			return messages, pos, nil
		}
		if err != nil {
			return nil, offset, err
		}
	}
}
