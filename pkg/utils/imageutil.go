package utils

import (
	"net/http"
	"strings"
)

// DetectImageType sniffs the content type of an uploaded capture.
func DetectImageType(data []byte) string {
	return http.DetectContentType(data)
}

// IsValidImageType checks if content type is one of the allowed image types
func IsValidImageType(contentType string, allowed []string) bool {
	ct := strings.ToLower(contentType)
	for _, validType := range allowed {
		if strings.Contains(ct, strings.ToLower(validType)) {
			return true
		}
	}
	return false
}
