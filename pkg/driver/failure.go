package driver

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// saveFailure copies progA and progB's IR files into dir, under a
// subdirectory named after both stems, preserving each original filename
// (§6 "filenames preserve the original stem"). One pair's files never
// collide with another's because each gets its own subdirectory.
func saveFailure(dir, progA, progB string) error {
	sub := filepath.Join(dir, filepath.Base(stem(progA))+"__"+filepath.Base(stem(progB)))
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return errors.Wrapf(err, "driver: mkdir %q", sub)
	}
	if err := copyFile(progA, filepath.Join(sub, filepath.Base(progA))); err != nil {
		return err
	}
	if err := copyFile(progB, filepath.Join(sub, filepath.Base(progB))); err != nil {
		return err
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "driver: open %q", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "driver: create %q", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "driver: copy %q -> %q", src, dst)
	}
	return nil
}
