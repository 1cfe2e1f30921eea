// Package textmap owns content-addressed localized text: turning raw
// localization keys into their 64-bit addresses and storing/serving the
// (language, address) -> text mapping.
package textmap

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var numeralRe = regexp.MustCompile(`^\d+$`)

// Resolver maps raw localization keys to content addresses. Resolution is a
// pure function, so results are cached unbounded for the process lifetime.
type Resolver struct {
	mu    sync.Mutex
	cache map[string]string
}

func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]string)}
}

// Resolve returns the content address for a raw key. A purely numeric key is
// already an address and passes through unchanged; anything else is hashed
// with xxHash64 and rendered as an unsigned decimal. ok is false only for
// empty keys.
func (r *Resolver) Resolve(raw string) (string, bool) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", false
	}
	if numeralRe.MatchString(key) {
		return key, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if addr, ok := r.cache[key]; ok {
		return addr, true
	}
	addr := strconv.FormatUint(xxhash.Sum64String(key), 10)
	r.cache[key] = addr
	return addr, true
}

var hexTokenRe = regexp.MustCompile(`\b[0-9a-fA-F]{16}\b`)

// resolveExternal computes the same address through the xxhsum command-line
// utility. It exists as an independent second implementation of the hash so
// the primary one can be checked bit-for-bit against it.
func resolveExternal(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	if numeralRe.MatchString(key) {
		return key, nil
	}

	tmp, err := os.CreateTemp("", "xxh-*.txt")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(key); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp: %w", err)
	}

	out, err := exec.Command("xxhsum", "-H1", tmp.Name()).Output()
	if err != nil {
		return "", fmt.Errorf("run xxhsum: %w", err)
	}
	base := filepath.Base(tmp.Name())
	for _, field := range strings.Fields(string(out)) {
		if field == base || strings.HasSuffix(field, base) {
			continue
		}
		if hexTokenRe.MatchString(field) {
			n, err := strconv.ParseUint(hexTokenRe.FindString(field), 16, 64)
			if err != nil {
				return "", fmt.Errorf("parse xxhsum output %q: %w", field, err)
			}
			return strconv.FormatUint(n, 10), nil
		}
	}
	return "", fmt.Errorf("no hash token in xxhsum output %q", string(out))
}
