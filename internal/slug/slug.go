package slug

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	gslug "github.com/gosimple/slug"
)

// maxAttempts bounds the uniqueness probe. Nine numeric suffixes are tried
// before switching to random suffixes.
const (
	numericAttempts = 9
	randomAttempts  = 10
)

// Generate derives a lowercase, hyphen-delimited ASCII slug from a display
// name. Diacritics are transliterated and punctuation stripped. The result is
// never empty: input that normalizes to nothing gets a random slug.
func Generate(name string) string {
	s := gslug.Make(name)
	if s == "" {
		return "card-" + randomSuffix()
	}
	return s
}

// ExistsFunc probes whether a slug is already taken. The probe is best-effort;
// the unique index on the target column stays the authoritative check and
// insert-time conflicts must be retried by the caller.
type ExistsFunc func(slug string) (bool, error)

// Unique resolves base to a slug the probe does not know about, first with
// numeric suffixes, then random ones. Attempts are bounded so the loop always
// terminates.
func Unique(base string, exists ExistsFunc) (string, error) {
	taken, err := exists(base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	for i := 1; i <= numericAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	for i := 0; i < randomAttempts; i++ {
		candidate := base + "-" + randomSuffix()
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("could not find a free slug for %q", base)
}

// Resuffix returns base with a fresh random suffix. Used when an insert hits
// the unique index despite a clean probe.
func Resuffix(base string) string {
	return base + "-" + randomSuffix()
}

func randomSuffix() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
