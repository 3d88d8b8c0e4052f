package booking

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

const referencePrefix = "CUL-"

var crockford = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// NewReference returns a time-ordered booking reference such as
// CUL-01J9Z3K8M4X2V7QH5N6TB0RSEW.
func NewReference() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return referencePrefix + crockford.EncodeToString(id[:]), nil
}

func IsReference(s string) bool {
	if !strings.HasPrefix(s, referencePrefix) {
		return false
	}
	body := s[len(referencePrefix):]
	if len(body) != 26 {
		return false
	}
	_, err := crockford.DecodeString(body)
	return err == nil
}
