package fileutils

import (
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
)

// EnsureDir creates dirName with mode perm if it does not exist and fails if the path
// exists but is not a directory.
func EnsureDir(dirName string, perm os.FileMode) error {
	info, err := os.Stat(dirName)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dirName, perm); err != nil {
			return errors.Wrapf(err, "create %s failed", dirName)
		}
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "stat %s failed", dirName)
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", dirName)
	}
	return nil
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func CreateTempDir() string {
	tmpDir, _ := ioutil.TempDir("", "")
	return tmpDir
}
