// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509store provides an indexed, concurrent certificate store used to
// locate candidate issuers during path building.
//
// Certificates are indexed by the canonical form of their subject name and by
// their SHA3-512 fingerprint. Writers are serialized and publish immutable
// copy-on-write snapshots, so lookups never wait for writers or for each
// other.
//
// Example usage:
//
//	store := x509store.New()
//	if _, err := store.InsertDER(der); err != nil {
//		return err
//	}
//	issuers := store.FindIssuers(leaf.Issuer, leaf.AuthorityKeyID())
package x509store
