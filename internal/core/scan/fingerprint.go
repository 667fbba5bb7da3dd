package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
)

// Scanner filenames look like 'TOP250-2025-12-29-3328-[gs1dp0ow].csv':
// a capture date, the kingdom number, and a random scan id.
var (
	kingdomBracketed = regexp.MustCompile(`-(\d{4})-\[`)
	kingdomFallback  = regexp.MustCompile(`(\d{4})`)
	captureDate      = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
)

// KingdomFromFilename extracts the kingdom number from a scan file
// name. Returns 0 if none is present.
func KingdomFromFilename(name string) int {
	if m := kingdomBracketed.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if m := kingdomFallback.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// CaptureDate extracts the embedded capture date from a scan file
// name, or "" if the name carries none.
func CaptureDate(name string) string {
	if m := captureDate.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}

// Fingerprint derives the stable identity of a physical scan: the
// content hash salted with the capture date. Two scans taken on
// different days that happen to read identically stay distinct, while
// re-submitting the same file always maps to the same fingerprint.
func Fingerprint(content []byte, filename string) string {
	h := sha256.New()
	h.Write(content)
	fmt.Fprintf(h, "|captured:%s", CaptureDate(filename))
	return hex.EncodeToString(h.Sum(nil))
}
