package service

import (
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"

	"go-screenshot-inspector/pkg/models"
)

// scoreAgainstExpected fills the accuracy fields of an OCR block by
// comparing recognized text to the expected text. Comparison is
// case-insensitive and whitespace-normalized. With no recognized text the
// error rates saturate at 1 and the match score at 0.
func scoreAgainstExpected(ocr *models.OCRBlock, expected string) {
	ref := normalizeText(expected)
	if ref == "" {
		return
	}
	hyp := normalizeText(ocr.Text)

	cer := characterErrorRate(ref, hyp)
	ocr.CER = cer
	ocr.WER = wordErrorRate(ref, hyp)
	ocr.MatchScore = clamp01(1 - cer)
}

// characterErrorRate is edit distance over the reference length in runes.
func characterErrorRate(ref, hyp string) float64 {
	refLen := len([]rune(ref))
	if refLen == 0 {
		return 0
	}
	distance := levenshtein.Distance(ref, hyp)
	return float64(distance) / float64(refLen)
}

func wordErrorRate(ref, hyp string) float64 {
	refWords := strings.Fields(ref)
	if len(refWords) == 0 {
		return 0
	}
	hypWords := strings.Fields(hyp)

	rate, _ := wer.WER(refWords, hypWords)
	return rate
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
