package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainConstraintSet = "modelfilter/constraint-set/v1"
	DomainCatalog       = "modelfilter/catalog/v1"
)

// HashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashCanonical marshals v canonically and hashes it under domain.
func HashCanonical(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("%s: failed to marshal: %w", domain, err)
	}
	return HashWithDomain(domain, canonical), nil
}

// CatalogHash computes a content-addressed identity for a catalog definition.
// Model and descriptor order are part of the identity because field order
// determines condition order.
func CatalogHash(descriptors []FilterDescriptor, models []ModelSpec) (string, error) {
	descArr := make(IRArray, len(descriptors))
	for i, d := range descriptors {
		descArr[i] = IRObject{
			"key":      IRString(d.Key),
			"kind":     IRString(d.Kind),
			"field":    IRString(d.Field),
			"operator": IRString(d.Operator),
		}
	}

	modelArr := make(IRArray, len(models))
	for i, m := range models {
		fields := make(IRArray, len(m.Fields))
		for j, f := range m.Fields {
			fields[j] = IRString(f)
		}
		modelArr[i] = IRObject{
			"id":     IRString(m.ID),
			"fields": fields,
		}
	}

	return HashCanonical(DomainCatalog, IRObject{
		"filters": descArr,
		"models":  modelArr,
	})
}
