package storage

import (
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// DocumentKey lays out objects as users/<owner>/documents/<doc>/<file>.
// The file name is reduced to its last path element and stripped of control
// characters, so it can never escape the document prefix.
func DocumentKey(ownerID, documentID uuid.UUID, fileName string) string {
	return path.Join("users", ownerID.String(), "documents", documentID.String(), SanitizeFileName(fileName))
}

func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." || name == "/" {
		return "file"
	}
	return name
}
