package textmap

// keyResolver memoizes key hashing across every store in the process, like
// the per-language loads it backs.
var keyResolver = NewResolver()

// HashKey resolves a raw text key to its content address through the shared
// process-wide resolver.
func HashKey(raw string) (string, bool) {
	return keyResolver.Resolve(raw)
}

// ResolveKey hashes a raw text key and looks it up in one language.
func (s *Store) ResolveKey(lang, key string) (string, bool, error) {
	hash, ok := keyResolver.Resolve(key)
	if !ok {
		return "", false, nil
	}
	return s.Get(lang, hash)
}

// ResolveKeyWithFallback resolves a key through lang, then CHS, then EN,
// returning fallback when no language has the text. Keys that look like
// ability identifiers often have no translation at all; the caller usually
// passes the key itself as the fallback.
func (s *Store) ResolveKeyWithFallback(lang, key, fallback string) (string, error) {
	for _, l := range FallbackChain(lang) {
		text, ok, err := s.ResolveKey(l, key)
		if err != nil {
			return "", err
		}
		if ok && text != "" {
			return text, nil
		}
	}
	return fallback, nil
}
