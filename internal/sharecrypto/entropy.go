package sharecrypto

import (
	"crypto/rand"
	"io"
)

// Reader supplies the randomness for participant IDs, master shares,
// polynomial coefficients, session keys and cipher keys. Tests swap it for a
// deterministic stream.
//
//nolint:gochecknoglobals // replaced in tests
var Reader io.Reader = rand.Reader
