package confirmation

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// VerifyResult is the integrity-verification verdict (spec.md §4.6.3).
type VerifyResult struct {
	SignatureValid    bool
	MetadataHashValid bool
	PDFHashValid      bool
	IsValid           bool
}

// Verify recomputes both hashes and the HMAC over docID's current
// validated_metadata and stored pdf_path, and compares them against the
// stored manifest. callerID must be the owner unless the document is
// public.
func (e *Engine) Verify(ctx context.Context, docID, callerID string) (*VerifyResult, error) {
	doc, _, err := e.loadDocAndSchema(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !doc.IsPublic && doc.Owner.ID != callerID {
		return nil, fmt.Errorf("confirmation: %s may not verify document %s", callerID, docID)
	}

	metadataHash := sha256.Sum256(canonicalMetadataJSON(doc.ValidatedMetadata))
	metadataHashValid := hex.EncodeToString(metadataHash[:]) == doc.Integrity.Manifest.Hashes.ValidatedMetadataSHA256

	reader, err := e.Objects.Stream(ctx, doc.Storage.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("confirmation: streaming %s for verification: %w", doc.Storage.PDFPath, err)
	}
	defer reader.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, reader); err != nil {
		return nil, fmt.Errorf("confirmation: hashing %s: %w", doc.Storage.PDFPath, err)
	}
	pdfHashValid := hex.EncodeToString(hasher.Sum(nil)) == doc.Integrity.Manifest.Hashes.PDFSHA256

	mac := hmac.New(sha256.New, e.Secret)
	mac.Write(canonicalManifestJSON(doc.Integrity.Manifest))
	signatureValid := hmac.Equal(mac.Sum(nil), decodeHex(doc.Integrity.ManifestSignature))

	return &VerifyResult{
		SignatureValid:    signatureValid,
		MetadataHashValid: metadataHashValid,
		PDFHashValid:      pdfHashValid,
		IsValid:           signatureValid && metadataHashValid && pdfHashValid,
	}, nil
}

func decodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
