package resolver

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Packed scripts look like
//
//	eval(function(p,a,c,k,e,d){...}('0 1=\'2\'',62,3,'var|file|x.m3u8'.split('|'),0,{}))
//
// where every word of the payload is an index, in base a, into the keyword list.
var (
	packedRe   = regexp.MustCompile(`(?s)}\('(.*?)',\s*(\d+),\s*(\d+),\s*'(.*?)'\.split\('\|'\)`)
	packedWord = regexp.MustCompile(`\b\w+\b`)
)

const packerAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var errPackerBase = errors.New("unsupported packer radix")

// Unpack expands every packed script found in src and returns the results.
// Scripts that fail to unpack are skipped.
func Unpack(src string) []string {
	var out []string
	for _, m := range packedRe.FindAllStringSubmatch(src, -1) {
		radix, _ := strconv.Atoi(m[2])
		count, _ := strconv.Atoi(m[3])
		if s, err := unpack(m[1], radix, count, strings.Split(m[4], "|")); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func unpack(payload string, radix, count int, keywords []string) (string, error) {
	if radix < 2 || radix > len(packerAlphabet) {
		return "", errPackerBase
	}
	if count > len(keywords) {
		count = len(keywords)
	}

	payload = strings.ReplaceAll(payload, `\'`, `'`)
	payload = strings.ReplaceAll(payload, `\\`, `\`)

	return packedWord.ReplaceAllStringFunc(payload, func(word string) string {
		i, ok := decodeRadix(word, radix)
		if !ok || i >= count || keywords[i] == "" {
			return word
		}
		return keywords[i]
	}), nil
}

func decodeRadix(word string, radix int) (int, bool) {
	n := 0
	for _, r := range word {
		d := strings.IndexRune(packerAlphabet[:radix], r)
		if d < 0 {
			return 0, false
		}
		n = n*radix + d
	}
	return n, true
}
