package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainDataset = "bayesq/dataset/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DatasetDigest computes the content digest of a dataset.
//
// The digest covers the schema (names, kinds, order) and every cell, so two
// datasets share a digest exactly when they would answer every query the
// same way. Cells are hashed by their FormatValue rendering; missing cells
// hash as a distinct marker, never as a string.
func DatasetDigest(schema Schema, columns map[string][]Value) (string, error) {
	cols := make([]any, len(schema))
	for i, col := range schema {
		values, ok := columns[col.Name]
		if !ok {
			return "", fmt.Errorf("DatasetDigest: column %q has no values", col.Name)
		}
		cells := make([]any, len(values))
		for r, v := range values {
			if IsMissing(v) {
				cells[r] = false
				continue
			}
			cells[r] = FormatValue(v)
		}
		cols[i] = map[string]any{
			"name":  col.Name,
			"kind":  col.Kind.String(),
			"cells": cells,
		}
	}

	canonical, err := MarshalCanonical(cols)
	if err != nil {
		return "", fmt.Errorf("DatasetDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDataset, canonical), nil
}
