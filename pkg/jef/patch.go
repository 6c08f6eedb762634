package jef

import (
	"os"
	"path/filepath"

	errs "github.com/matzehuels/jefview/pkg/errors"
)

// SetColour changes the colour code of one thread. Only the four colour table
// bytes for that thread change; stitch geometry and every other byte of the
// file stay as they were read.
func (p *Pattern) SetColour(thread int, code int32) error {
	if thread < 0 || thread >= len(p.Threads) {
		return errs.New(errs.ErrCodeInvalidInput, "thread %d out of range (pattern has %d)", thread, len(p.Threads))
	}
	le.PutUint32(p.raw[colourOffset(thread):], uint32(code))
	p.Threads[thread].ColourCode = code
	return nil
}

// Save writes the (possibly patched) file bytes to path. The write goes to a
// temporary file in the same directory which then replaces path, so a failed
// save leaves any existing file untouched.
func (p *Pattern) Save(path string) error {
	if err := writeAtomic(path, p.raw); err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "save %s", path)
	}
	return nil
}

func writeAtomic(path string, data []byte) (err error) {
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
