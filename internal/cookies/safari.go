package cookies

import (
	"errors"
	"time"

	"github.com/warpdl/warpcookie/pkg/credman"
	"github.com/warpdl/warpcookie/pkg/credman/types"
	"github.com/warpdl/warpcookie/pkg/logger"
)

// macEpochOffset is the number of seconds between the Unix epoch and the Mac
// absolute time reference date, 2001-01-01T00:00:00Z.
const macEpochOffset = 978_307_200

const (
	safariFlagSecure   = 0x1
	safariFlagHttpOnly = 0x4
)

var (
	safariMagic     = []byte("cook")
	safariPageMagic = []byte{0x00, 0x00, 0x01, 0x00}
)

// macAbsoluteTimeToTime converts seconds since 2001-01-01 to a time,
// truncated to whole seconds.
func macAbsoluteTimeToTime(ts float64) time.Time {
	return time.Unix(int64(ts+macEpochOffset), 0)
}

// ParseSafariCookies decodes a Cookies.binarycookies archive into jar, which
// is created when nil. Records whose strings are not valid UTF-8 are skipped
// with a single warning; structural damage aborts with ErrParser.
func ParseSafariCookies(data []byte, jar *credman.Jar, log logger.Logger, progress Progress) (*credman.Jar, error) {
	if jar == nil {
		jar = credman.NewJar("")
	}
	olog := logger.NewOnceLogger(log)
	if progress == nil {
		progress = NopProgress{}
	}

	pageSizes, bodyStart, err := parseSafariHeader(data, olog)
	if err != nil {
		return nil, err
	}
	body := NewBinaryReader(data[bodyStart:], olog)
	for _, size := range pageSizes {
		page, err := body.ReadBytes(int(size))
		if err != nil {
			return nil, err
		}
		if err := parseSafariPage(page, jar, olog, progress); err != nil {
			return nil, err
		}
	}
	if err := body.SkipToEnd("footer"); err != nil {
		return nil, err
	}
	return jar, nil
}

func parseSafariHeader(data []byte, log logger.Logger) ([]uint32, int, error) {
	r := NewBinaryReader(data, log)
	if err := r.Expect(safariMagic, "database signature"); err != nil {
		return nil, 0, err
	}
	count, err := r.ReadUint32(true)
	if err != nil {
		return nil, 0, err
	}
	sizes := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		size, err := r.ReadUint32(true)
		if err != nil {
			return nil, 0, err
		}
		sizes = append(sizes, size)
	}
	return sizes, r.Cursor(), nil
}

func parseSafariPage(page []byte, jar *credman.Jar, log *logger.OnceLogger, progress Progress) error {
	r := NewBinaryReader(page, log)
	if err := r.Expect(safariPageMagic, "page signature"); err != nil {
		return err
	}
	count, err := r.ReadUint32(false)
	if err != nil {
		return err
	}
	offsets := make([]int, 0, count)
	for i := uint32(0); i < count; i++ {
		off, err := r.ReadUint32(false)
		if err != nil {
			return err
		}
		offsets = append(offsets, int(off))
	}
	if count == 0 {
		log.Debug("a cookies page of size %d has no cookies", len(page))
		return nil
	}

	if err := r.SkipTo(offsets[0], "unknown page header field"); err != nil {
		return err
	}

	tracker := progress.Start("Loading cookie", len(offsets))
	defer tracker.Done()
	for _, off := range offsets {
		if err := r.SkipTo(off, "space between records"); err != nil {
			return err
		}
		size, err := parseSafariRecord(page[off:], jar, log)
		if err != nil {
			return err
		}
		if _, err := r.ReadBytes(size); err != nil {
			return err
		}
		tracker.Increment()
	}
	return r.SkipToEnd("space in between pages")
}

func parseSafariRecord(data []byte, jar *credman.Jar, log *logger.OnceLogger) (int, error) {
	r := NewBinaryReader(data, log)
	size32, err := r.ReadUint32(false)
	if err != nil {
		return 0, err
	}
	size := int(size32)
	if err := r.Skip(4, "unknown record field 1"); err != nil {
		return 0, err
	}
	flags, err := r.ReadUint32(false)
	if err != nil {
		return 0, err
	}
	if err := r.Skip(4, "unknown record field 2"); err != nil {
		return 0, err
	}
	var offsets [4]uint32
	for i := range offsets {
		if offsets[i], err = r.ReadUint32(false); err != nil {
			return 0, err
		}
	}
	if err := r.Skip(8, "unknown record field 3"); err != nil {
		return 0, err
	}
	expiration, err := r.ReadFloat64(false)
	if err != nil {
		return 0, err
	}
	if _, err := r.ReadFloat64(false); err != nil { // creation date
		return 0, err
	}

	// domain, name, path, value
	var fields [4]string
	for i, off := range offsets {
		if err := r.SkipTo(int(off), "unknown"); err != nil {
			return 0, err
		}
		s, err := r.ReadCString()
		if errors.Is(err, errInvalidUTF8) {
			log.WarningOnce("failed to parse Safari cookie because UTF-8 decoding failed")
			return size, nil
		}
		if err != nil {
			return 0, err
		}
		fields[i] = s
	}
	if err := r.SkipTo(size, "space at the end of the record"); err != nil {
		return 0, err
	}

	c := types.New(fields[0], fields[2], fields[1], fields[3], flags&safariFlagSecure != 0, macAbsoluteTimeToTime(expiration))
	c.HttpOnly = flags&safariFlagHttpOnly != 0
	jar.Set(c)
	return size, nil
}
