package illness

import "errors"

var ErrIllnessNotFound = errors.New("illness record not found")
