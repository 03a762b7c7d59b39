package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprint computation. The version suffix
// enables future algorithm migration without ambiguity.
const (
	DomainGraph = "calcora/stepgraph/v1"
	DomainNode  = "calcora/stepnode/v1"
)

// hashWithDomain computes SHA-256 over domain + 0x00 + data. The null
// separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content hash of a graph. Two runs over the
// same registry and input must produce equal fingerprints, which is the
// engine's determinism guarantee in checkable form.
func Fingerprint(g *Graph) (string, error) {
	nodeList := make([]any, len(g.nodes))
	for i, n := range g.nodes {
		nodeList[i] = n.CanonicalMap()
	}
	canonical, err := MarshalCanonical(map[string]any{"nodes": nodeList})
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// NodeDigest computes the content hash of a single node. Used by the run
// archive to detect tampering in individually stored steps.
func NodeDigest(n StepNode) (string, error) {
	canonical, err := MarshalCanonical(n.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("node digest: %w", err)
	}
	return hashWithDomain(DomainNode, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error. Use only in
// tests or when the graph is known to be well formed.
func MustFingerprint(g *Graph) string {
	fp, err := Fingerprint(g)
	if err != nil {
		panic(err)
	}
	return fp
}
