package storage

import (
	"errors"
	"path"
	"strings"

	"cardocs/internal/model"
)

// Prefix is the root of every uploaded binary.
const Prefix = "documents/"

// ErrInvalidName is returned for file names that would escape their category folder.
var ErrInvalidName = errors.New("file name must be a plain name without path separators")

// ObjectPath returns the key documents/<category>/<name>.
// Uploading the same (category, name) twice maps to the same key.
func ObjectPath(category model.Category, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return path.Join(Prefix, string(category), name), nil
}

// ValidateName rejects empty names, "." and "..", and names containing a slash or backslash.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
