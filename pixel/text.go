// Package pixel - text.go
//
// Numeric cleanup of OCR output. Tesseract regularly reads the digits of the
// game font as look-alike letters, so text is corrected before digit runs are
// extracted.
package pixel

import (
	"regexp"
	"strconv"
	"strings"
)

var digitRun = regexp.MustCompile(`\d+`)

// ocrDigitFixes maps letters tesseract confuses with digits
var ocrDigitFixes = strings.NewReplacer(
	"S", "5",
	"s", "5",
	"O", "0",
	"o", "0",
	"I", "1",
	"l", "1",
	"B", "8",
)

// CorrectOCRDigits replaces letters commonly misread for digits
func CorrectOCRDigits(text string) string {
	return ocrDigitFixes.Replace(text)
}

// ExtractNumbers returns every run of digits in text, in order
func ExtractNumbers(text string) []string {
	return digitRun.FindAllString(text, -1)
}

// JoinedNumber concatenates all digit runs and parses the result.
// "1 234 567" -> 1234567. ok is false when text holds no digits.
func JoinedNumber(text string) (int, bool) {
	runs := ExtractNumbers(CorrectOCRDigits(text))
	if len(runs) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.Join(runs, ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// FirstNumber parses the first digit run of text
func FirstNumber(text string) (int, bool) {
	runs := ExtractNumbers(CorrectOCRDigits(text))
	if len(runs) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(runs[0])
	if err != nil {
		return 0, false
	}
	return n, true
}
