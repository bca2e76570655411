package architecture

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// FilePrefix marks a connection endpoint that refers to a source file
// rather than a stored component.
const FilePrefix = "FILE:"

// idDigestBytes is the number of digest bytes kept in an ID (128 bits)
const idDigestBytes = 16

// NormalizeName lowercases a name and folds separators so that
// "Stripe API", "stripe-api" and "stripe_api" collapse to the same key.
func NormalizeName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	var b strings.Builder
	b.Grow(len(name))
	lastDash := false
	for _, r := range name {
		switch {
		case r == ' ' || r == '_' || r == '.' || r == '-' || r == '\t':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		default:
			b.WriteRune(r)
			lastDash = false
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ComponentID derives the stable identifier for a (type, name) pair.
// Repeated scans of unchanged code always produce the same ID.
func ComponentID(t ComponentType, name string) string {
	return string(t) + "_" + digest(string(t), NormalizeName(name))
}

// ConnectionID derives the stable identifier for a connection. The
// source file is part of the key so the same edge observed from two
// files stays two records; repeated hits within one file merge.
func ConnectionID(from, to string, t ConnectionType, file string) string {
	return "conn_" + digest(from, to, string(t), file)
}

// FileRef builds the placeholder endpoint ID for a source file
func FileRef(path string) string {
	return FilePrefix + path
}

// IsFileRef reports whether an endpoint ID is a file placeholder
func IsFileRef(id string) bool {
	return strings.HasPrefix(id, FilePrefix)
}

// FilePath extracts the path from a file placeholder ID
func FilePath(id string) string {
	return strings.TrimPrefix(id, FilePrefix)
}

func digest(parts ...string) string {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		// Length-prefix every part so ("ab","c") and ("a","bc") differ.
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:idDigestBytes])
}
