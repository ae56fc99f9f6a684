package align

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

func errInvalid(format string, args ...interface{}) error {
	return errors.E(errors.Invalid, fmt.Sprintf(format, args...))
}
