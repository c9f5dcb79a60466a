package fetcher

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// minCharsetConfidence is the chardet confidence required to trust a guess
const minCharsetConfidence = 50

// decompress wraps body according to the Content-Encoding header
func decompress(encoding string, body io.Reader) (io.Reader, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, noop, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, noop, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, noop, err
		}
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			return zr, func() { zr.Close() }, nil
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		return fr, func() { fr.Close() }, nil
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, noop, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// isTextual reports whether the sniffed body or declared type is text
func isTextual(data []byte, contentType string) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") ||
		strings.HasSuffix(mediaType, "+xml") ||
		mediaType == "application/xhtml+xml" ||
		mediaType == "application/xml"
}

// toUTF8 converts data to UTF-8 using the declared charset, the document's
// own meta declaration, or a statistical guess, in that order
func toUTF8(data []byte, contentType string) (string, string) {
	label := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		label = params["charset"]
	}

	if label == "" {
		_, name, certain := charset.DetermineEncoding(data, contentType)
		switch {
		case certain, name == "utf-8":
			label = name
		default:
			label = detectCharset(data)
			if label == "" {
				label = name
			}
		}
	}

	label = strings.ToLower(label)
	if label == "" || label == "utf-8" || label == "utf8" {
		return string(data), "utf-8"
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return string(data), "utf-8"
	}
	converted, err := io.ReadAll(r)
	if err != nil {
		return string(data), "utf-8"
	}
	return string(converted), label
}

func detectCharset(data []byte) string {
	result, err := chardet.NewHtmlDetector().DetectBest(data)
	if err != nil || result == nil || result.Confidence < minCharsetConfidence {
		return ""
	}
	return strings.ToLower(result.Charset)
}

func describeType(data []byte, contentType string) string {
	if sniffed := mimetype.Detect(data).String(); sniffed != "application/octet-stream" {
		return sniffed
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return "binary data"
}
