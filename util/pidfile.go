package util

import (
	"os"
	"strconv"
)

func WritePidFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0660)
}

// RemovePidFile removes path unless it was rewritten by another process.
func RemovePidFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if string(b) != strconv.Itoa(os.Getpid()) {
		return nil
	}
	return os.Remove(path)
}
