package sha1

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"golang.org/x/xerrors"
)

// NotAvailable is returned when a checksum file has no usable digest.
const NotAvailable = "N/A"

// Parse extracts the hex digest from the content of a *.sha1 file.
func Parse(data []byte) string {
	data = bytes.TrimSpace(data)

	// Handle empty SHA1 files
	// e.g.
	//    https://repo.maven.apache.org/maven2/org/wso2/msf4j/msf4j-swagger/2.5.2/msf4j-swagger-2.5.2.jar.sha1
	if len(data) == 0 {
		return NotAvailable
	}

	// Validate SHA1 as there are xxx.jar.sha1 files with additional data.
	// e.g.
	//   https://repo.maven.apache.org/maven2/aspectj/aspectjrt/1.5.2a/aspectjrt-1.5.2a.jar.sha1
	//   https://repo.maven.apache.org/maven2/xerces/xercesImpl/2.9.0/xercesImpl-2.9.0.jar.sha1
	for _, part := range strings.Fields(string(data)) {
		if len(part) == 40 && isHexString(part) {
			return strings.ToLower(part)
		}
	}
	return NotAvailable
}

// File returns the SHA-1 digest of the file at path.
func File(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("unable to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err = io.Copy(h, f); err != nil {
		return nil, xerrors.Errorf("unable to read %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// Decode converts a hex digest returned by Parse into bytes.
func Decode(digest string) ([]byte, error) {
	if digest == NotAvailable {
		return nil, nil
	}
	b, err := hex.DecodeString(digest)
	if err != nil {
		return nil, xerrors.Errorf("sha1 decode error: %w", err)
	}
	return b, nil
}

// isHexString checks if a string contains only hex characters
func isHexString(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
