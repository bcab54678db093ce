package objectstore

import (
	"fmt"
	"strings"
)

// Slug lowercases s, replaces every non-alphanumeric run with a single "-",
// and falls back to "na" for an empty result (spec.md §4.2).
func Slug(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "na"
	}
	return out
}

// StageKind names the four artifacts produced per ingestion task during
// stage-validate (spec.md §4.2 layout).
type StageKind string

const (
	StageKindPDF             StageKind = "pdf"
	StageKindJSON            StageKind = "json"
	StageKindText            StageKind = "text"
	StageKindPDFOriginalPath StageKind = "pdf_original_path"
)

// StageValidatePath builds the stage-validate path for one artifact of a
// task: stage-validate/<user_id>/<task_id>/<kind>_document.<ext>
func StageValidatePath(userID, taskID string, kind StageKind, ext string) string {
	return fmt.Sprintf("stage-validate/%s/%s/%s_document.%s", userID, taskID, kind, ext)
}

// ArchiveFile names the four files an archived document carries.
type ArchiveFile string

const (
	ArchiveFilePrincipalPDF ArchiveFile = "principal.pdf"
	ArchiveFileOriginalPDF  ArchiveFile = "original.pdf"
	ArchiveFileMetadataJSON ArchiveFile = "metadata.json"
	ArchiveFileExtractedTXT ArchiveFile = "extracted.txt"
)

// ArchivePath builds the archive path for a confirmed document:
// archive/<code_path_slugs...>/<process_slug>/<required_doc_slug>/<task_id>/<file>
// codePathSlugs must already be slugged (the confirmation engine slugs the
// naming code path before calling); this
// function does not re-slug them so callers control ordering precisely.
func ArchivePath(codePathSlugs []string, processSlug, requiredDocSlug, taskID string, file ArchiveFile) string {
	segments := append([]string{"archive"}, codePathSlugs...)
	segments = append(segments, Slug(processSlug), Slug(requiredDocSlug), taskID, string(file))
	return strings.Join(segments, "/")
}

// SystemTemplatePath builds the path for a live system template.
func SystemTemplatePath(uuid, ext string) string {
	return fmt.Sprintf("system-templates/%s.%s", uuid, ext)
}

// SystemTemplateArchivePath builds the path a retired template moves to when
// superseded: system-templates/archive/<ts>_<old>.<ext>
func SystemTemplateArchivePath(timestamp, oldName, ext string) string {
	return fmt.Sprintf("system-templates/archive/%s_%s.%s", timestamp, oldName, ext)
}
