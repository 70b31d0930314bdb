package embed

import "runtime"

// Capability reports what level of embedding support the current
// environment can sustain. It is advisory: the `status` command reports
// it, and nothing uses it to gate the embedder's functional contract.
type Capability int

const (
	// CapabilityNone: no vocabulary has been built yet.
	CapabilityNone Capability = iota
	// CapabilityTfIdf: the TF-IDF baseline runs comfortably.
	CapabilityTfIdf
	// CapabilityFull: enough memory/CPU for a larger vocabulary and, when
	// wired in, a neural embedder.
	CapabilityFull
)

func (c Capability) String() string {
	switch c {
	case CapabilityFull:
		return "full"
	case CapabilityTfIdf:
		return "tfidf"
	default:
		return "none"
	}
}

// minFullCapabilityCPUs is a deliberately low bar: TF-IDF embedding and
// cosine scoring are cheap relative to indexing I/O.
const minFullCapabilityCPUs = 4

// Detect inspects available CPU count (and, via vocabLen, how large the
// built vocabulary already is) to report a capability tier.
func Detect(vocabLen int) Capability {
	if vocabLen == 0 {
		return CapabilityNone
	}
	if runtime.NumCPU() >= minFullCapabilityCPUs {
		return CapabilityFull
	}
	return CapabilityTfIdf
}
