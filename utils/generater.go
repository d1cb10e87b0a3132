package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GeneratePublicID builds a unique media identifier such as "service-12-3f2a...".
func GeneratePublicID(prefix string, id uint) string {
	return fmt.Sprintf("%s-%d-%s", prefix, id, uuid.NewString())
}
