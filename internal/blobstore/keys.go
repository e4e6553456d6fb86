package blobstore

import (
	"fmt"
	"regexp"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFileName replaces every character outside [a-zA-Z0-9._-] with an
// underscore so that arbitrary client file names produce stable, safe
// storage keys.
func SanitizeFileName(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}

// ObjectKey builds the deterministic storage key for one modality file.
// The same (patientID, modality, fileName) triple always maps to the same
// slot, so re-uploading a case overwrites the previous object instead of
// accumulating copies.
//
// Layout: patients/{patientID}/{modality}-{sanitizedFileName}
func ObjectKey(patientID, modality, fileName string) string {
	return fmt.Sprintf("patients/%s/%s-%s", patientID, modality, SanitizeFileName(fileName))
}

// ThumbnailKey is the conventional slot for a patient's pre-rendered
// preview image. The thumbnail itself is produced by an external pipeline;
// this package only fixes where it is expected to live.
func ThumbnailKey(patientID string) string {
	return fmt.Sprintf("patients/%s/thumbnail_display.png", patientID)
}
